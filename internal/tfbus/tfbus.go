// Package tfbus fans relative-transform updates out to subscribers, keyed by
// the (parent, child) frame-name pair. It is the input side of the stream
// pose source: transport adapters publish transforms, listeners subscribe to
// the single pair they care about.
package tfbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is one relative-transform update between two named frames.
type Transform struct {
	Parent      string
	Child       string
	Stamp       time.Time
	Translation r3.Vec
	Rotation    quat.Number
}

type pairKey struct {
	parent, child string
}

// Bus is an in-process transform pub/sub hub. Fan-out is non-blocking: a
// subscriber that has not drained its channel misses the update rather than
// stalling the publisher. Subscribers that need every update at full rate
// should not exist in this system; the stream listener rate-limits anyway.
type Bus struct {
	mu   sync.Mutex
	subs map[pairKey]map[string]chan Transform
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[pairKey]map[string]chan Transform)}
}

// Subscribe registers interest in updates for the (parent, child) pair and
// returns a subscription id and the delivery channel. The channel holds one
// pending update.
func (b *Bus) Subscribe(parent, child string) (string, <-chan Transform) {
	id := uuid.NewString()
	ch := make(chan Transform, 1)

	key := pairKey{parent, child}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[string]chan Transform)
	}
	b.subs[key][id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(parent, child, id string) {
	key := pairKey{parent, child}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[key][id]; ok {
		close(ch)
		delete(b.subs[key], id)
	}
}

// Publish delivers tf to every subscriber of its (parent, child) pair and
// reports how many subscribers received it. Subscribers with a full channel
// are skipped.
func (b *Bus) Publish(tf Transform) int {
	key := pairKey{tf.Parent, tf.Child}
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, ch := range b.subs[key] {
		select {
		case ch <- tf:
			delivered++
		default:
		}
	}
	return delivered
}
