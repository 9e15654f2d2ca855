package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/panelmark/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	// Context for parsing
	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Parse Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		// Remove quotes if present
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "service":
			err = setServiceField(&cfg.Service, key, value)
		case currentSection == "server":
			err = setServerField(&cfg.Server, key, value)
		case currentSection == "layout":
			err = setLayoutField(cfg, key, value)
		case currentSection == "viewport":
			err = setViewportField(cfg, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "log":
			err = setLogField(&cfg.Log, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	case "output_dir":
		cfg.OutputDir = value
	}
	return nil
}

func setServiceField(s *Service, key, value string) error {
	switch key {
	case "url":
		s.URL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		s.Timeout = d
	}
	return nil
}

func setServerField(s *Server, key, value string) error {
	switch key {
	case "addr":
		s.Addr = value
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
		s.RateLimit = f
	case "burst":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for key %s: %w", key, err)
		}
		s.Burst = n
	}
	return nil
}

func setLayoutField(cfg *Config, key, value string) error {
	if key == "debounce" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		cfg.Debounce = d
		return nil
	}
	if key == "height_fraction" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid fraction for key %s: %q", key, value)
		}
		cfg.Layout.HeightFraction = f
		return nil
	}
	var dst *int
	switch key {
	case "margin":
		dst = &cfg.Layout.Margin
	case "max_width":
		dst = &cfg.Layout.MaxWidth
	case "max_height":
		dst = &cfg.Layout.MaxHeight
	case "min_width":
		dst = &cfg.Layout.MinWidth
	default:
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setViewportField(cfg *Config, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	switch key {
	case "width":
		cfg.Viewport.Width = n
	case "height":
		cfg.Viewport.Height = n
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch key {
	case "export":
		n.Export = b
	case "upload":
		n.Upload = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setLogField(l *Log, key, value string) error {
	switch key {
	case "level":
		l.Level = value
	case "development":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		l.Development = b
	}
	return nil
}
