package posesource

import (
	"context"
	"time"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/monitoring"
	"github.com/meridian-uas/setpoint.bridge/internal/tfbus"
	"github.com/meridian-uas/setpoint.bridge/internal/timeutil"
)

// StreamListener forwards transform updates for one (source, target) frame
// pair as poses, enforcing a maximum update rate by dropping. A dropped
// update is gone: nothing is buffered, nothing catches up, and the limiter
// clock does not advance for it. The next update supersedes whatever was
// dropped, which is the right behaviour for a streaming control value.
type StreamListener struct {
	bus    *tfbus.Bus
	source string
	target string

	minInterval time.Duration
	clock       timeutil.Clock
	sink        Sink

	// lastAccepted is touched only from the Run goroutine (or the test
	// driving HandleTransform directly).
	lastAccepted time.Time
}

// NewStreamListener creates a listener for the (source, target) transform
// pair. rateLimit is in Hz; zero or negative disables limiting. A nil clock
// defaults to the real clock.
func NewStreamListener(bus *tfbus.Bus, source, target string, rateLimit float64, clock timeutil.Clock, sink Sink) *StreamListener {
	var minInterval time.Duration
	if rateLimit > 0 {
		minInterval = time.Duration(float64(time.Second) / rateLimit)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &StreamListener{
		bus:         bus,
		source:      source,
		target:      target,
		minInterval: minInterval,
		clock:       clock,
		sink:        sink,
	}
}

// Run subscribes to the bus and forwards accepted updates until ctx is
// cancelled.
func (l *StreamListener) Run(ctx context.Context) error {
	id, ch := l.bus.Subscribe(l.source, l.target)
	defer l.bus.Unsubscribe(l.source, l.target, id)

	monitoring.Logf("listening for position setpoint transform %s -> %s", l.source, l.target)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tf := <-ch:
			l.HandleTransform(tf)
		}
	}
}

// HandleTransform applies the rate limit to one update and forwards it as a
// pose if accepted. Exposed so tests can drive the limiter deterministically
// with a mock clock.
func (l *StreamListener) HandleTransform(tf tfbus.Transform) {
	now := l.clock.Now()
	if l.minInterval > 0 && !l.lastAccepted.IsZero() && now.Sub(l.lastAccepted) < l.minInterval {
		// Dropped. Deliberately do not advance lastAccepted: a burst of
		// early arrivals must not push the accept window forward.
		return
	}
	l.lastAccepted = now

	l.sink(frame.Pose{
		Stamp:       tf.Stamp,
		Translation: tf.Translation,
		Orientation: tf.Rotation,
	})
}
