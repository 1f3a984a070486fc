//go:build !tinygo

package cst816s

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

type txCall struct {
	addr uint16
	w    []byte
	rlen int
}

// fakeBus serves canned register reads and records every transaction.
type fakeBus struct {
	calls []txCall
	reads map[uint8][]byte
	err   error
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.calls = append(b.calls, txCall{addr, append([]byte(nil), w...), len(r)})
	if b.err != nil {
		return b.err
	}
	if len(r) > 0 {
		copy(r, b.reads[w[0]])
	}
	return nil
}

// fakeLine records reset line transitions, true for high.
type fakeLine struct {
	levels []bool
}

func (l *fakeLine) High() { l.levels = append(l.levels, true) }
func (l *fakeLine) Low()  { l.levels = append(l.levels, false) }

func poll(t *testing.T, d *Device) bool {
	t.Helper()
	ok, err := d.Available()
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

func TestCoordinateDecode(t *testing.T) {
	bus := &fakeBus{reads: map[uint8][]byte{}}
	d := New(bus, new(fakeLine))
	lows := []uint8{0x00, 0x01, 0x7F, 0x80, 0xFF}
	for hi := 0; hi < 256; hi++ {
		for _, lo := range lows {
			bus.reads[regTouchData] = []byte{0x00, 1, uint8(hi), lo, uint8(hi), lo}
			d.Interrupt()
			if !poll(t, d) {
				t.Fatal("no event after interrupt")
			}
			want := uint16(hi&0x0F)<<8 | uint16(lo)
			if d.Touch.X != want {
				t.Fatalf("hi %#.2x lo %#.2x: X = %d, want %d", hi, lo, d.Touch.X, want)
			}
			if d.Touch.Y != want {
				t.Fatalf("hi %#.2x lo %#.2x: Y = %d, want %d", hi, lo, d.Touch.Y, want)
			}
		}
	}
}

func TestTouchDecode(t *testing.T) {
	bus := &fakeBus{reads: map[uint8][]byte{
		regTouchData: {0x0B, 1, 0x41, 0x23, 0x02, 0x58},
	}}
	d := New(bus, new(fakeLine))
	d.Interrupt()
	if !poll(t, d) {
		t.Fatal("no event after interrupt")
	}
	ev := d.Touch
	if ev.Gesture != DoubleClick {
		t.Errorf("gesture = %#.2x, want DoubleClick", uint8(ev.Gesture))
	}
	if ev.Points != 1 {
		t.Errorf("points = %d, want 1", ev.Points)
	}
	if ev.Type != Up {
		t.Errorf("type = %d, want Up", ev.Type)
	}
	if ev.X != 0x123 || ev.Y != 0x258 {
		t.Errorf("pos = (%d, %d), want (%d, %d)", ev.X, ev.Y, 0x123, 0x258)
	}
}

func TestAvailableIdle(t *testing.T) {
	bus := &fakeBus{}
	d := New(bus, new(fakeLine))
	if poll(t, d) {
		t.Error("Available reported an event without an edge")
	}
	if len(bus.calls) != 0 {
		t.Errorf("idle poll performed %d transactions, want 0", len(bus.calls))
	}
}

func TestEdgeCoalescing(t *testing.T) {
	bus := &fakeBus{reads: map[uint8][]byte{
		regTouchData: {0x05, 1, 0x00, 0x10, 0x00, 0x20},
	}}
	d := New(bus, new(fakeLine))
	d.Interrupt()
	d.Interrupt()
	d.Interrupt()
	if !poll(t, d) {
		t.Fatal("no event after interrupts")
	}
	if len(bus.calls) != 1 {
		t.Errorf("three edges caused %d decodes, want 1", len(bus.calls))
	}
	if poll(t, d) {
		t.Error("second poll reported a stale event")
	}
	if len(bus.calls) != 1 {
		t.Errorf("idle poll performed a transaction, total %d", len(bus.calls))
	}
	d.Interrupt()
	if !poll(t, d) {
		t.Error("no event after new edge")
	}
}

func TestAutoSleepTimeClamp(t *testing.T) {
	bus := &fakeBus{}
	d := New(bus, new(fakeLine))
	cases := []struct {
		seconds int
		want    uint8
	}{
		{0, 1},
		{1, 1},
		{-5, 1},
		{255, 255},
		{300, 255},
		{100, 100},
	}
	for _, c := range cases {
		if err := d.SetAutoSleepTime(c.seconds); err != nil {
			t.Fatal(err)
		}
		last := bus.calls[len(bus.calls)-1]
		if last.w[0] != regSleepTime || last.w[1] != c.want {
			t.Errorf("SetAutoSleepTime(%d) wrote %#.2x to %#.2x, want %#.2x", c.seconds, last.w[1], last.w[0], c.want)
		}
	}
}

func TestGestureString(t *testing.T) {
	cases := []struct {
		g    Gesture
		want string
	}{
		{None, "NONE"},
		{SwipeDown, "SWIPE DOWN"},
		{SwipeUp, "SWIPE UP"},
		{SwipeLeft, "SWIPE LEFT"},
		{SwipeRight, "SWIPE RIGHT"},
		{SingleClick, "SINGLE CLICK"},
		{DoubleClick, "DOUBLE CLICK"},
		{LongPress, "LONG PRESS"},
		{Gesture(0xFF), "UNKNOWN"},
		{Gesture(0x06), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.g.String(); got != c.want {
			t.Errorf("Gesture(%#.2x).String() = %q, want %q", uint8(c.g), got, c.want)
		}
	}
}

func TestEnableDoubleClickInterruptOnly(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{0xEC, 0x01}},
			{Addr: Addr, W: []byte{0xFA, 0x10}},
		},
		DontPanic: true,
	}
	d := New(bus, new(fakeLine))
	if err := d.EnableDoubleClickInterruptOnly(); err != nil {
		t.Fatal(err)
	}
	if bus.Count != 2 {
		t.Errorf("issued %d writes, want 2", bus.Count)
	}
}

func TestConfigWrites(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{0xEC, 0x0A}},
			{Addr: Addr, W: []byte{0xFA, 0x02}},
			{Addr: Addr, W: []byte{0xFE, 0xFE}},
			{Addr: Addr, W: []byte{0xFE, 0x00}},
			{Addr: Addr, W: []byte{0xEC, 0x01}},
		},
		DontPanic: true,
	}
	d := New(bus, new(fakeLine))
	steps := []struct {
		name string
		op   func() error
	}{
		{"SetMotionMask", func() error { return d.SetMotionMask(MotionEnSwipe | MotionEnClick) }},
		{"SetIRQControl", func() error { return d.SetIRQControl(IRQEnTouch) }},
		{"DisableAutoSleep", d.DisableAutoSleep},
		{"EnableAutoSleep", d.EnableAutoSleep},
		{"EnableDoubleClick", d.EnableDoubleClick},
	}
	for _, s := range steps {
		if err := s.op(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	if bus.Count != len(bus.Ops) {
		t.Errorf("issued %d writes, want %d", bus.Count, len(bus.Ops))
	}
}

func TestBegin(t *testing.T) {
	bus := &fakeBus{reads: map[uint8][]byte{
		regVersion:     {0xB4},
		regVersionInfo: {0xD0, 0x02, 0x01},
	}}
	line := new(fakeLine)
	d := New(bus, line)
	if err := d.Begin(); err != nil {
		t.Fatal(err)
	}
	wantLevels := []bool{true, false, true}
	if len(line.levels) != len(wantLevels) {
		t.Fatalf("reset sequence %v, want %v", line.levels, wantLevels)
	}
	for i, l := range wantLevels {
		if line.levels[i] != l {
			t.Fatalf("reset sequence %v, want %v", line.levels, wantLevels)
		}
	}
	if d.Touch.Version != 0xB4 {
		t.Errorf("version = %#.2x, want 0xb4", d.Touch.Version)
	}
	if d.Touch.VersionInfo != [3]byte{0xD0, 0x02, 0x01} {
		t.Errorf("version info = %v", d.Touch.VersionInfo)
	}
	if len(bus.calls) != 2 || bus.calls[0].w[0] != regVersion || bus.calls[1].w[0] != regVersionInfo {
		t.Errorf("probe transactions %v", bus.calls)
	}
}

func TestSleep(t *testing.T) {
	bus := &fakeBus{}
	line := new(fakeLine)
	d := New(bus, line)
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if len(line.levels) != 2 || line.levels[0] || !line.levels[1] {
		t.Errorf("reset pulse %v, want [low high]", line.levels)
	}
	last := bus.calls[len(bus.calls)-1]
	if last.w[0] != regPowerMode || last.w[1] != pwrStandby {
		t.Errorf("standby write %v", last.w)
	}
}

func TestFailedDecodeKeepsEvent(t *testing.T) {
	bus := &fakeBus{reads: map[uint8][]byte{
		regTouchData: {0x05, 1, 0x01, 0x23, 0x02, 0x58},
	}}
	d := New(bus, new(fakeLine))
	d.Interrupt()
	if !poll(t, d) {
		t.Fatal("no event after interrupt")
	}
	prev := d.Touch

	busErr := errors.New("i2c: timeout")
	bus.err = busErr
	d.Interrupt()
	ok, err := d.Available()
	if ok {
		t.Error("failed decode reported an event")
	}
	if !errors.Is(err, busErr) {
		t.Errorf("err = %v, want wrapped %v", err, busErr)
	}
	if d.Touch != prev {
		t.Errorf("failed decode modified the event: %+v", d.Touch)
	}

	// The pending flag was consumed by the failed poll.
	bus.err = nil
	if poll(t, d) {
		t.Error("poll after failed decode reported an event without a new edge")
	}
}

func TestAttachUserInterrupt(t *testing.T) {
	d := New(&fakeBus{}, new(fakeLine))
	var first, second int
	d.AttachUserInterrupt(func() { first++ })
	d.Interrupt()
	if first != 1 {
		t.Errorf("callback ran %d times, want 1", first)
	}
	d.AttachUserInterrupt(func() { second++ })
	d.Interrupt()
	if first != 1 || second != 1 {
		t.Errorf("after replace: first %d, second %d", first, second)
	}
	d.AttachUserInterrupt(nil)
	d.Interrupt()
	if first != 1 || second != 1 {
		t.Errorf("after detach: first %d, second %d", first, second)
	}
}
