package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"tactum.dev/driver/cst816s"
)

// Config is the touchmon configuration file.
type Config struct {
	// Bus is the I2C bus name or number; empty selects the first
	// available bus.
	Bus string `toml:"bus"`
	// Reset and Int are gpioreg pin names.
	Reset string `toml:"reset_pin"`
	Int   string `toml:"int_pin"`
	// Edge is "falling", "rising" or "both".
	Edge  string      `toml:"edge"`
	Touch TouchConfig `toml:"touch"`
}

type TouchConfig struct {
	// Gestures lists the motions the controller should detect:
	// "double_click", "single_click", "long_press", "swipe".
	Gestures []string `toml:"gestures"`
	// IRQSources lists the interrupt sources: "motion",
	// "long_press_wake", "change", "touch".
	IRQSources []string `toml:"irq_sources"`
	// DoubleClickOnly restricts detection and interrupts to double
	// taps, overriding Gestures and IRQSources.
	DoubleClickOnly bool `toml:"double_click_only"`
	AutoSleep       bool `toml:"auto_sleep"`
	// AutoSleepTime is the inactivity timeout in seconds; zero
	// leaves the controller default.
	AutoSleepTime int `toml:"auto_sleep_time"`
}

func defaultConfig() Config {
	return Config{
		Reset: "GPIO4",
		Int:   "GPIO17",
		Edge:  "falling",
		Touch: TouchConfig{
			Gestures:   []string{"single_click", "double_click", "long_press", "swipe"},
			IRQSources: []string{"motion", "touch"},
			AutoSleep:  true,
		},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *TouchConfig) motionMask() (uint8, error) {
	var mask uint8
	for _, g := range c.Gestures {
		switch g {
		case "double_click":
			mask |= cst816s.MotionEnDClick
		case "single_click":
			mask |= cst816s.MotionEnClick
		case "long_press":
			mask |= cst816s.MotionEnLong
		case "swipe":
			mask |= cst816s.MotionEnSwipe
		default:
			return 0, fmt.Errorf("config: unknown gesture %q", g)
		}
	}
	return mask, nil
}

func (c *TouchConfig) irqMask() (uint8, error) {
	var mask uint8
	for _, s := range c.IRQSources {
		switch s {
		case "touch":
			mask |= cst816s.IRQEnTouch
		case "change":
			mask |= cst816s.IRQEnChange
		case "long_press_wake":
			mask |= cst816s.IRQOnceWLP
		case "motion":
			mask |= cst816s.IRQEnMotion
		default:
			return 0, fmt.Errorf("config: unknown IRQ source %q", s)
		}
	}
	return mask, nil
}
