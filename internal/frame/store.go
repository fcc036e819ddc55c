package frame

import (
	"sync/atomic"

	"github.com/meridian-uas/setpoint.bridge/internal/monitoring"
)

// Store holds the active frame convention. Selection requests and setpoint
// encodes run on different goroutines, so the value lives behind an atomic:
// a reader can never observe a partial update, and reads are not serialized
// against each other.
type Store struct {
	active atomic.Uint32
}

// NewStore creates a Store with the given initial frame.
func NewStore(initial Frame) *Store {
	s := &Store{}
	s.active.Store(uint32(initial))
	return s
}

// Active returns the currently selected frame. Called by every encode; the
// value is read at call time, never cached.
func (s *Store) Active() Frame {
	return Frame(s.active.Load())
}

func (s *Store) set(f Frame) {
	s.active.Store(uint32(f))
}

// ParamWriter persists the selected frame's name. Implemented by the
// parameter store.
type ParamWriter interface {
	SetParam(name, value string) error
}

// ParamName is the parameter store key holding the active frame's name.
const ParamName = "mav_frame"

// Selector atomically swaps the active frame and persists the selection.
type Selector struct {
	store  *Store
	params ParamWriter
}

// NewSelector creates a Selector writing to the given store. params may be
// nil, in which case selections are not persisted.
func NewSelector(store *Store, params ParamWriter) *Selector {
	return &Selector{store: store, params: params}
}

// Select validates the requested protocol id, swaps the active frame, and
// best-effort persists the new frame's name. Unknown ids return
// ErrUnknownFrame and leave the active frame unchanged. A persistence
// failure is logged but does not roll back the swap.
func (s *Selector) Select(id uint8) (Frame, error) {
	f, err := FromID(id)
	if err != nil {
		return 0, err
	}

	s.store.set(f)

	if s.params != nil {
		if err := s.params.SetParam(ParamName, f.String()); err != nil {
			monitoring.Logf("failed to persist frame selection %s: %v", f, err)
		}
	}

	return f, nil
}

// FromPersistedName resolves a persisted frame name to a Frame, falling back
// to Default when the name is empty or unrecognized. The fallback is logged
// so an operator can spot a corrupt parameter; the stored value is left
// untouched until the next successful selection overwrites it.
func FromPersistedName(name string) Frame {
	if name == "" {
		return Default
	}
	f, err := FromName(name)
	if err != nil {
		monitoring.Logf("persisted frame name %q not recognized, falling back to %s", name, Default)
		return Default
	}
	return f
}
