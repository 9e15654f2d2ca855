package assets

import (
	"errors"
	"testing"
)

func TestLogosCatalogueOrder(t *testing.T) {
	got, err := Logos()
	if err != nil {
		t.Fatalf("Logos: %v", err)
	}
	want := []string{"schneider", "abb", "siemens"}
	if len(got) != len(want) {
		t.Fatalf("logos = %d, want %d", len(got), len(want))
	}
	for i, l := range got {
		if l.Key != want[i] {
			t.Errorf("logo %d = %s, want %s", i, l.Key, want[i])
		}
		if l.Width != 60 || l.Height != 40 {
			t.Errorf("%s size = %dx%d", l.Key, l.Width, l.Height)
		}
	}
}

func TestLogoLookupIgnoresCase(t *testing.T) {
	data, err := LogoPNG("ABB")
	if err != nil {
		t.Fatalf("LogoPNG: %v", err)
	}
	data[0] = 0
	again, err := LogoPNG("abb")
	if err != nil {
		t.Fatalf("LogoPNG: %v", err)
	}
	if again[0] == 0 {
		t.Fatalf("LogoPNG returned shared memory")
	}
}

func TestUnknownLogo(t *testing.T) {
	if _, err := LogoImage("acme"); !errors.Is(err, ErrUnknownLogo) {
		t.Fatalf("err = %v, want ErrUnknownLogo", err)
	}
}
