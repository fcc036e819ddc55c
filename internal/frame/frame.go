// Package frame implements the MAV_FRAME coordinate conventions used by
// position setpoints and the transforms between them. The incoming pose is
// always expressed as an ENU world translation with a baselink (forward-left-
// up) body orientation; Resolve converts it to the representation the
// selected MAV_FRAME requires on the wire.
package frame

import (
	"errors"
	"fmt"
)

// Frame identifies a MAV_FRAME coordinate convention. The numeric values are
// the protocol ids sent in the coordinate_frame field of
// SET_POSITION_TARGET_LOCAL_NED.
type Frame uint8

const (
	// LocalNED is a world-fixed north-east-down frame with origin at the
	// vehicle's home position.
	LocalNED Frame = 1
	// LocalENU is a world-fixed east-north-up frame. Note the autopilot
	// still receives NED data; the id only labels the setpoint.
	LocalENU Frame = 4
	// LocalOffsetNED is north-east-down relative to the vehicle's current
	// position.
	LocalOffsetNED Frame = 7
	// BodyNED is aligned with the vehicle's body axes (forward-right-down).
	BodyNED Frame = 8
	// BodyOffsetNED is body-axis-aligned and relative to the vehicle's
	// current position.
	BodyOffsetNED Frame = 9
)

// Default is the frame used when no persisted selection exists or the
// persisted name is not recognized.
const Default = LocalNED

// ErrUnknownFrame is returned when a frame id or name is not part of the
// enumeration. Selection requests carrying unknown values fail with this
// error and leave the active frame unchanged.
var ErrUnknownFrame = errors.New("unknown MAV_FRAME")

var frameNames = map[Frame]string{
	LocalNED:       "LOCAL_NED",
	LocalENU:       "LOCAL_ENU",
	LocalOffsetNED: "LOCAL_OFFSET_NED",
	BodyNED:        "BODY_NED",
	BodyOffsetNED:  "BODY_OFFSET_NED",
}

// String returns the protocol name of the frame, or a numeric placeholder
// for values outside the enumeration.
func (f Frame) String() string {
	if name, ok := frameNames[f]; ok {
		return name
	}
	return fmt.Sprintf("MAV_FRAME(%d)", uint8(f))
}

// Valid reports whether f is part of the supported enumeration.
func (f Frame) Valid() bool {
	_, ok := frameNames[f]
	return ok
}

// BodyRelative reports whether f is fixed to the vehicle's body axes rather
// than the world. Body-relative frames skip the world-axis flip in Resolve.
func (f Frame) BodyRelative() bool {
	return f == BodyNED || f == BodyOffsetNED
}

// FromID converts a protocol id into a Frame, rejecting ids outside the
// enumeration.
func FromID(id uint8) (Frame, error) {
	f := Frame(id)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownFrame, id)
	}
	return f, nil
}

// FromName converts a protocol name (as persisted in the parameter store)
// into a Frame.
func FromName(name string) (Frame, error) {
	for f, n := range frameNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: name %q", ErrUnknownFrame, name)
}
