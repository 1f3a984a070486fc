// Command touchmon monitors and configures a CST816S touch controller
// attached to the host.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"tactum.dev/driver/cst816s"
	"tactum.dev/input"
)

var (
	busName    = flag.String("bus", "", "I2C bus name or number (overrides config)")
	rstName    = flag.String("rst", "", "reset pin name (overrides config)")
	irqName    = flag.String("irq", "", "interrupt pin name (overrides config)")
	configPath = flag.String("config", "", "configuration file")
	standby    = flag.Bool("sleep", false, "command the controller into standby and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "touchmon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	if *rstName != "" {
		cfg.Reset = *rstName
	}
	if *irqName != "" {
		cfg.Int = *irqName
	}
	var edge cst816s.Edge
	switch cfg.Edge {
	case "", "falling":
		edge = cst816s.FallingEdge
	case "rising":
		edge = cst816s.RisingEdge
	case "both":
		edge = cst816s.BothEdges
	default:
		return fmt.Errorf("config: unknown edge %q", cfg.Edge)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer bus.Close()
	rst := gpioreg.ByName(cfg.Reset)
	if rst == nil {
		return fmt.Errorf("no pin named %q", cfg.Reset)
	}
	irq := gpioreg.ByName(cfg.Int)
	if irq == nil {
		return fmt.Errorf("no pin named %q", cfg.Int)
	}

	if *standby {
		d := cst816s.New(bus, cst816s.GPIOReset{Pin: rst})
		if err := d.Begin(); err != nil {
			return err
		}
		return d.Sleep()
	}

	dev, stop, err := cst816s.Open(bus, rst, irq, edge)
	if err != nil {
		return err
	}
	defer stop()
	fmt.Printf("cst816s: firmware %#.2x, info % x\n", dev.Touch.Version, dev.Touch.VersionInfo)

	if err := configure(dev, cfg.Touch); err != nil {
		return err
	}

	events, stopEvents := input.Watch(dev, input.Config{
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "touchmon: %v\n", err)
		},
	})
	defer stopEvents()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case <-sig:
			return nil
		case ev := <-events:
			fmt.Printf("%-12s %-8s %4d,%4d  points %d\n",
				ev.Gesture, ev.Type, ev.Pos.X, ev.Pos.Y, ev.Points)
		}
	}
}

func configure(dev *cst816s.Device, cfg TouchConfig) error {
	if cfg.AutoSleepTime > 0 {
		if err := dev.SetAutoSleepTime(cfg.AutoSleepTime); err != nil {
			return err
		}
	}
	autoSleep := dev.EnableAutoSleep
	if !cfg.AutoSleep {
		autoSleep = dev.DisableAutoSleep
	}
	if err := autoSleep(); err != nil {
		return err
	}
	if cfg.DoubleClickOnly {
		return dev.EnableDoubleClickInterruptOnly()
	}
	motion, err := cfg.motionMask()
	if err != nil {
		return err
	}
	if err := dev.SetMotionMask(motion); err != nil {
		return err
	}
	irqs, err := cfg.irqMask()
	if err != nil {
		return err
	}
	return dev.SetIRQControl(irqs)
}
