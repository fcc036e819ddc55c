package posesource

import (
	"context"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
)

// Backlog is the depth of the discrete receiver's queue. Overflow drops the
// oldest queued pose so the newest setpoint is never the one lost.
const Backlog = 10

// DiscreteReceiver queues individually published poses and forwards each one
// exactly once, with no rate limiting, deduplication, or coalescing. The
// producer controls the cadence.
type DiscreteReceiver struct {
	queue chan frame.Pose
	sink  Sink
}

// NewDiscreteReceiver creates a receiver delivering to sink.
func NewDiscreteReceiver(sink Sink) *DiscreteReceiver {
	return &DiscreteReceiver{
		queue: make(chan frame.Pose, Backlog),
		sink:  sink,
	}
}

// Publish enqueues a pose. When the backlog is full the oldest entry is
// discarded to make room. Publish never blocks.
func (r *DiscreteReceiver) Publish(p frame.Pose) {
	for {
		select {
		case r.queue <- p:
			return
		default:
		}
		select {
		case <-r.queue:
		default:
		}
	}
}

// Run drains the queue into the sink until ctx is cancelled.
func (r *DiscreteReceiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-r.queue:
			r.sink(p)
		}
	}
}

// Pending reports the current queue depth. Used by status reporting.
func (r *DiscreteReceiver) Pending() int {
	return len(r.queue)
}
