// Package cst816s implements a driver for the Hynitron CST816S
// capacitive touch controller found on small round and square LCD
// modules.
//
// The controller signals a touch by pulling its interrupt line low.
// The interrupt path ([Device.Interrupt]) only records that an event is
// pending; all bus traffic happens from the polling side through
// [Device.Available]. Between two polls multiple edges coalesce into
// one pending event, and the decode reads whatever the chip holds at
// poll time.
//
// Datasheet: https://www.waveshare.com/w/upload/5/51/CST816S_Datasheet_EN.pdf
package cst816s

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Bus is the two-wire register transport. Both *machine.I2C and
// periph.io's i2c.Bus satisfy it.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// ResetLine drives the controller's reset pin. machine.Pin satisfies
// it directly; use [GPIOReset] for a periph.io pin.
type ResetLine interface {
	High()
	Low()
}

// Edge selects which transitions of the interrupt line signal a touch.
type Edge int

const (
	FallingEdge Edge = iota
	RisingEdge
	BothEdges
)

// Gesture is the raw gesture code from the touch packet. Codes outside
// the defined set are kept as read and label as "UNKNOWN".
type Gesture uint8

const (
	None        Gesture = 0x00
	SwipeDown   Gesture = 0x01
	SwipeUp     Gesture = 0x02
	SwipeLeft   Gesture = 0x03
	SwipeRight  Gesture = 0x04
	SingleClick Gesture = 0x05
	DoubleClick Gesture = 0x0B
	LongPress   Gesture = 0x0C
)

func (g Gesture) String() string {
	switch g {
	case None:
		return "NONE"
	case SwipeDown:
		return "SWIPE DOWN"
	case SwipeUp:
		return "SWIPE UP"
	case SwipeLeft:
		return "SWIPE LEFT"
	case SwipeRight:
		return "SWIPE RIGHT"
	case SingleClick:
		return "SINGLE CLICK"
	case DoubleClick:
		return "DOUBLE CLICK"
	case LongPress:
		return "LONG PRESS"
	default:
		return "UNKNOWN"
	}
}

// EventType is the touch phase from the top two bits of the status
// byte.
type EventType uint8

const (
	Down EventType = iota
	Up
	Contact
)

func (e EventType) String() string {
	switch e {
	case Down:
		return "DOWN"
	case Up:
		return "UP"
	case Contact:
		return "CONTACT"
	default:
		return "UNKNOWN"
	}
}

// TouchEvent is the most recently decoded touch packet. Version and
// VersionInfo are read once during Begin; the remaining fields are
// overwritten as a whole by each successful decode.
type TouchEvent struct {
	Gesture Gesture
	Points  uint8
	Type    EventType
	X, Y    uint16

	Version     uint8
	VersionInfo [3]byte
}

type Device struct {
	bus Bus
	rst ResetLine

	pending chan struct{}
	userISR atomic.Pointer[func()]

	// Touch holds the latest decoded event. It is only written from
	// the polling side, never from Interrupt.
	Touch TouchEvent

	scratch [1 + touchDataLen]byte
}

// New returns a driver for a controller on bus behind rst. The bus
// must already be configured; call Begin before any other operation.
func New(bus Bus, rst ResetLine) *Device {
	return &Device{
		bus:     bus,
		rst:     rst,
		pending: make(chan struct{}, 1),
	}
}

// Begin hardware-resets the controller and reads its firmware
// identification registers. Configuration writes issued before Begin
// completes are undefined.
func (d *Device) Begin() error {
	d.rst.High()
	time.Sleep(50 * time.Millisecond)
	d.rst.Low()
	time.Sleep(5 * time.Millisecond)
	d.rst.High()
	time.Sleep(50 * time.Millisecond)

	ver := d.scratch[1:2]
	if err := d.readRegs(regVersion, ver); err != nil {
		return err
	}
	d.Touch.Version = ver[0]
	time.Sleep(5 * time.Millisecond)
	info := d.scratch[1 : 1+len(d.Touch.VersionInfo)]
	if err := d.readRegs(regVersionInfo, info); err != nil {
		return err
	}
	copy(d.Touch.VersionInfo[:], info)
	return nil
}

// Interrupt records a pending touch event and runs the user callback,
// if any. It performs no bus I/O and does not block, so it is safe to
// call from a pin interrupt handler. It is the sole producer of
// pending events; repeated calls before the next poll coalesce.
func (d *Device) Interrupt() {
	select {
	case d.pending <- struct{}{}:
	default:
	}
	if fn := d.userISR.Load(); fn != nil {
		(*fn)()
	}
}

// AttachUserInterrupt registers fn to be called on every touch
// interrupt, replacing any previous callback. fn runs in interrupt
// context: it must not block and must not touch the bus. A nil fn
// detaches the callback.
func (d *Device) AttachUserInterrupt(fn func()) {
	if fn == nil {
		d.userISR.Store(nil)
		return
	}
	d.userISR.Store(&fn)
}

// Available reports whether a touch event arrived since the last
// successful poll, decoding it into Touch. When no event is pending it
// returns false without touching the bus. A failed decode consumes the
// pending event, leaves Touch unchanged and returns the transport
// error.
//
// Available must be called from a single goroutine.
func (d *Device) Available() (bool, error) {
	select {
	case <-d.pending:
	default:
		return false, nil
	}
	if err := d.readTouch(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Device) readTouch() error {
	buf := d.scratch[1 : 1+touchDataLen]
	if err := d.readRegs(regTouchData, buf); err != nil {
		return err
	}
	d.Touch.Gesture = Gesture(buf[0])
	d.Touch.Points = buf[1]
	d.Touch.Type = EventType(buf[2] >> 6)
	d.Touch.X = uint16(buf[2]&0x0F)<<8 | uint16(buf[3])
	d.Touch.Y = uint16(buf[4]&0x0F)<<8 | uint16(buf[5])
	return nil
}

// SetMotionMask selects which gestures the controller detects, a
// combination of the MotionEn bits.
func (d *Device) SetMotionMask(mask uint8) error {
	return d.writeReg(regMotionMask, mask)
}

// SetIRQControl selects which events drive the interrupt line, a
// combination of the IRQ bits.
func (d *Device) SetIRQControl(mask uint8) error {
	return d.writeReg(regIRQCtl, mask)
}

// EnableDoubleClickInterruptOnly restricts detection and interrupt
// generation to double taps: motion mask first, then IRQ control.
func (d *Device) EnableDoubleClickInterruptOnly() error {
	if err := d.SetMotionMask(MotionEnDClick); err != nil {
		return err
	}
	return d.SetIRQControl(IRQEnMotion)
}

// EnableDoubleClick enables double tap detection without changing the
// IRQ control register. Kept for compatibility; new code should use
// EnableDoubleClickInterruptOnly or SetMotionMask.
func (d *Device) EnableDoubleClick() error {
	return d.SetMotionMask(MotionEnDClick)
}

// DisableAutoSleep keeps the controller in dynamic mode. The register
// address and the disable payload are both 0xFE; the register takes
// any nonzero value as "disabled".
func (d *Device) DisableAutoSleep() error {
	return d.writeReg(regAutoSleep, 0xFE)
}

// EnableAutoSleep lets the controller enter standby after the
// auto-sleep timeout.
func (d *Device) EnableAutoSleep() error {
	return d.writeReg(regAutoSleep, 0x00)
}

// SetAutoSleepTime sets the inactivity timeout, clamped to [1, 255]
// seconds.
func (d *Device) SetAutoSleepTime(seconds int) error {
	if seconds < 1 {
		seconds = 1
	}
	if seconds > 255 {
		seconds = 255
	}
	return d.writeReg(regSleepTime, uint8(seconds))
}

// Sleep commands the controller into standby mode. Waking it again
// requires a hardware reset (Begin). The write is not acknowledged
// beyond the bus transaction itself.
func (d *Device) Sleep() error {
	d.rst.Low()
	time.Sleep(5 * time.Millisecond)
	d.rst.High()
	time.Sleep(50 * time.Millisecond)
	return d.writeReg(regPowerMode, pwrStandby)
}

func (d *Device) readRegs(reg uint8, buf []byte) error {
	d.scratch[0] = reg
	if err := d.bus.Tx(Addr, d.scratch[:1], buf); err != nil {
		return fmt.Errorf("cst816s: read reg %#.2x: %w", reg, err)
	}
	return nil
}

func (d *Device) writeReg(reg, val uint8) error {
	w := d.scratch[:2]
	w[0], w[1] = reg, val
	if err := d.bus.Tx(Addr, w, nil); err != nil {
		return fmt.Errorf("cst816s: write reg %#.2x: %w", reg, err)
	}
	return nil
}

// Addr is the fixed I2C address of the controller.
const Addr = 0x15

// Motion mask bits (register 0xEC). Bits 4-7 are reserved and must be
// written as zero.
const (
	MotionEnDClick = 1 << 0 // double tap
	MotionEnClick  = 1 << 1 // single tap
	MotionEnLong   = 1 << 2 // long press
	MotionEnSwipe  = 1 << 3 // swipe, any direction
)

// IRQ control bits (register 0xFA). Bit 0 is reserved.
const (
	IRQEnTouch  = 1 << 1 // interrupt on touch down/up
	IRQEnChange = 1 << 2 // interrupt on coordinate change
	IRQOnceWLP  = 1 << 3 // one-shot wake on long press
	IRQEnMotion = 1 << 4 // interrupt on any enabled motion event
)

const (
	regTouchData   = 0x01 // gesture, points, status and coordinates
	regVersion     = 0x15 // firmware version
	regPowerMode   = 0xA5 // power mode command
	regVersionInfo = 0xA7 // firmware version info, 3 bytes
	regMotionMask  = 0xEC // gesture detection enables
	regSleepTime   = 0xF9 // auto-sleep timeout in seconds
	regIRQCtl      = 0xFA // interrupt source enables
	regAutoSleep   = 0xFE // nonzero disables auto-sleep

	pwrStandby = 0x03

	touchDataLen = 6
)
