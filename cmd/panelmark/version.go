package main

import (
	"flag"
	"fmt"
)

type versionCmd struct{ r *root }

func (v *versionCmd) Program() string        { return v.r.program + " version" }
func (v *versionCmd) FlagSet() *flag.FlagSet { return nil }

func (v *versionCmd) Run() error {
	fmt.Fprintf(v.r.stdout, "%s version %s", v.r.program, version)
	if commit != "" {
		fmt.Fprintf(v.r.stdout, " (%s", commit)
		if date != "" {
			fmt.Fprintf(v.r.stdout, ", %s", date)
		}
		fmt.Fprint(v.r.stdout, ")")
	}
	fmt.Fprintln(v.r.stdout)
	return nil
}
