// Package setpoint encodes poses into SET_POSITION_TARGET_LOCAL_NED
// commands and hands them to the flight-controller link.
package setpoint

import (
	"time"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/mavlink"
	"github.com/meridian-uas/setpoint.bridge/internal/monitoring"
)

// IgnoreAllExceptXYZYaw is the constant type mask: yaw rate (bit 11),
// acceleration (bits 6-8), and velocity (bits 3-5) ignored; position
// (bits 0-2) and yaw (bit 10) asserted. Every command carries this mask.
const IgnoreAllExceptXYZYaw uint16 = (1 << 11) | (7 << 6) | (7 << 3)

// Transport dispatches an encoded message towards the flight controller.
// Implemented by the FCU link.
type Transport interface {
	Send(msg mavlink.Message) error
}

// Encoder turns each incoming pose into exactly one position-target command.
// Dispatch is fire-and-forget: a failed send is logged and dropped, because
// the next pose supersedes it anyway.
type Encoder struct {
	frames *frame.Store
	link   Transport

	targetSystem    uint8
	targetComponent uint8
}

// NewEncoder creates an Encoder reading the active frame from store and
// sending through link.
func NewEncoder(store *frame.Store, link Transport, targetSystem, targetComponent uint8) *Encoder {
	return &Encoder{
		frames:          store,
		link:            link,
		targetSystem:    targetSystem,
		targetComponent: targetComponent,
	}
}

// HandlePose encodes and dispatches one pose. The active frame is read here,
// at call time, so a selection that lands between two poses takes effect on
// the very next command.
func (e *Encoder) HandlePose(p frame.Pose) {
	f := e.frames.Active()
	res := frame.Resolve(p, f)

	cmd := &mavlink.SetPositionTargetLocalNed{
		TimeBootMS:      truncateMillis(p.Stamp),
		X:               float32(res.Translation.X),
		Y:               float32(res.Translation.Y),
		Z:               float32(res.Translation.Z),
		Yaw:             float32(res.Yaw),
		TypeMask:        IgnoreAllExceptXYZYaw,
		TargetSystem:    e.targetSystem,
		TargetComponent: e.targetComponent,
		CoordinateFrame: uint8(f),
	}

	if err := e.link.Send(cmd); err != nil {
		monitoring.Logf("failed to send position target: %v", err)
	}
}

// truncateMillis converts a timestamp to whole milliseconds, truncating
// rather than rounding.
func truncateMillis(t time.Time) uint32 {
	return uint32(t.UnixNano() / int64(time.Millisecond))
}
