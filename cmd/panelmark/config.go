package main

import (
	"flag"
	"fmt"

	"github.com/example/panelmark/internal/config"
)

type configCmd struct {
	*root
	fs   *flag.FlagSet
	path string
}

func (c *configCmd) Program() string        { return c.root.program + " config" }
func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := newFlagSet("config")
	c := &configCmd{root: r, fs: fs}
	fs.StringVar(&c.path, "path", "", "file written by save (default: the loaded config or ~/.config/panelmark/config.rc)")
	if err := parseFlags(fs, args, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	case "save":
		return c.runSave()
	default:
		return &UsageError{of: c, err: fmt.Errorf("unknown config command: %s", args[0])}
	}
}

func (c *configCmd) runSave() error {
	path := c.path
	if path == "" {
		path = config.NewLoader(version, configPathOverride).GetConfigPath()
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(c.config, path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	fmt.Fprintf(c.stderr, "Configuration saved to %s\n", path)
	return nil
}
