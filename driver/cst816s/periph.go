//go:build !tinygo

package cst816s

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// GPIOReset adapts a periph.io output pin to the reset line.
type GPIOReset struct {
	Pin gpio.PinOut
}

func (r GPIOReset) High() { r.Pin.Out(gpio.High) }
func (r GPIOReset) Low()  { r.Pin.Out(gpio.Low) }

// Open resets the controller behind rst, probes it and arms the touch
// interrupt on irq. The returned stop function releases the interrupt
// watcher.
func Open(bus Bus, rst gpio.PinOut, irq gpio.PinIn, e Edge) (*Device, func(), error) {
	d := New(bus, GPIOReset{Pin: rst})
	if err := d.Begin(); err != nil {
		return nil, nil, err
	}
	stop, err := d.Watch(irq, e)
	if err != nil {
		return nil, nil, err
	}
	return d, stop, nil
}

// Watch arms the touch interrupt. Linux hosts have no interrupt
// context, so a goroutine blocks on the line and forwards each edge to
// Interrupt, preserving the coalescing contract. The returned stop
// function terminates the goroutine.
func (d *Device) Watch(irq gpio.PinIn, e Edge) (func(), error) {
	edge := gpio.FallingEdge
	switch e {
	case RisingEdge:
		edge = gpio.RisingEdge
	case BothEdges:
		edge = gpio.BothEdges
	}
	if err := irq.In(gpio.PullUp, edge); err != nil {
		return nil, fmt.Errorf("cst816s: irq pin: %w", err)
	}
	quit := make(chan struct{})
	go func() {
		// Wake up regularly to notice quit; WaitForEdge has no
		// cancellation of its own.
		const wakeup = 100 * time.Millisecond
		for {
			select {
			case <-quit:
				return
			default:
			}
			if irq.WaitForEdge(wakeup) {
				d.Interrupt()
			}
		}
	}()
	return func() { close(quit) }, nil
}
