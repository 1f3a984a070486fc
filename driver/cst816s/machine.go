//go:build tinygo

package cst816s

import (
	"fmt"
	"machine"
)

// Config holds the pin assignment for the controller.
type Config struct {
	SDA, SCL machine.Pin
	Reset    machine.Pin
	Int      machine.Pin
	// Edge selects the interrupt line transition; the controller
	// pulls the line low on touch, so the zero value (FallingEdge)
	// is almost always right.
	Edge Edge
}

// Open configures the I2C bus and pins, resets the controller and arms
// the touch interrupt.
func Open(bus *machine.I2C, cfg Config) (*Device, error) {
	if err := bus.Configure(machine.I2CConfig{Frequency: 400_000, SDA: cfg.SDA, SCL: cfg.SCL}); err != nil {
		return nil, fmt.Errorf("cst816s: i2c: %w", err)
	}
	cfg.Int.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	cfg.Reset.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d := New(bus, cfg.Reset)
	if err := d.Begin(); err != nil {
		return nil, err
	}
	change := machine.PinFalling
	switch cfg.Edge {
	case RisingEdge:
		change = machine.PinRising
	case BothEdges:
		change = machine.PinToggle
	}
	if err := cfg.Int.SetInterrupt(change, d.pinInterrupt); err != nil {
		return nil, fmt.Errorf("cst816s: interrupt: %w", err)
	}
	return d, nil
}

func (d *Device) pinInterrupt(machine.Pin) {
	d.Interrupt()
}
