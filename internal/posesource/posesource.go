// Package posesource provides the two mutually exclusive pose producers that
// feed the setpoint encoder: a rate-limited listener on the transform bus
// and a discrete receiver for individually published poses. Exactly one
// variant is active for the lifetime of the process; each accepted pose is
// delivered to the sink exactly once, never batched.
package posesource

import (
	"context"
	"errors"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/tfbus"
	"github.com/meridian-uas/setpoint.bridge/internal/timeutil"
)

// Sink receives each accepted pose. One pose in means exactly one call.
type Sink func(frame.Pose)

// Producer is a pose source. Run blocks until ctx is cancelled, delivering
// accepted poses to the sink it was constructed with.
type Producer interface {
	Run(ctx context.Context) error
}

// Config selects and parameterizes the pose source variant.
type Config struct {
	// Listen selects the transform-stream variant. When false the discrete
	// receiver is used instead; the two are never both active.
	Listen bool

	// SourceFrame and TargetFrame name the transform pair the stream
	// listener subscribes to.
	SourceFrame string
	TargetFrame string

	// RateLimit is the stream listener's maximum update rate in Hz.
	RateLimit float64
}

// ErrNoSink is returned when a producer is constructed without a sink.
var ErrNoSink = errors.New("pose source requires a sink")

// New instantiates exactly one producer variant from cfg. Stream mode
// requires a bus; discrete mode ignores it. The returned DiscreteReceiver is
// nil in stream mode, which is how callers know not to expose the discrete
// ingestion surface.
func New(cfg Config, bus *tfbus.Bus, clock timeutil.Clock, sink Sink) (Producer, *DiscreteReceiver, error) {
	if sink == nil {
		return nil, nil, ErrNoSink
	}
	if cfg.Listen {
		if bus == nil {
			return nil, nil, errors.New("stream pose source requires a transform bus")
		}
		l := NewStreamListener(bus, cfg.SourceFrame, cfg.TargetFrame, cfg.RateLimit, clock, sink)
		return l, nil, nil
	}
	r := NewDiscreteReceiver(sink)
	return r, r, nil
}
