// Package input converts touch controller events into a stream of
// input events for an application event loop.
package input

import (
	"image"
	"time"

	"tactum.dev/driver/cst816s"
)

// Event is one decoded touch.
type Event struct {
	Gesture cst816s.Gesture
	Type    cst816s.EventType
	Pos     image.Point
	Points  int
}

type Config struct {
	// Poll is the interval between availability checks. Zero means
	// 5ms.
	Poll time.Duration
	// OnError, when set, receives transport errors from failed
	// decodes. The loop keeps running regardless.
	OnError func(error)
}

// Watch polls dev and delivers each decoded touch on the returned
// channel. Events are dropped rather than queued when the consumer
// lags; the driver retains only the latest event anyway. The stop
// function terminates the loop and closes the channel.
func Watch(dev *cst816s.Device, cfg Config) (<-chan Event, func()) {
	poll := cfg.Poll
	if poll <= 0 {
		poll = 5 * time.Millisecond
	}
	ch := make(chan Event, 1)
	quit := make(chan struct{})
	go func() {
		defer close(ch)
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
			}
			ok, err := dev.Available()
			if err != nil {
				if cfg.OnError != nil {
					cfg.OnError(err)
				}
				continue
			}
			if !ok {
				continue
			}
			tp := dev.Touch
			ev := Event{
				Gesture: tp.Gesture,
				Type:    tp.Type,
				Pos:     image.Point{X: int(tp.X), Y: int(tp.Y)},
				Points:  int(tp.Points),
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}()
	return ch, func() { close(quit) }
}
