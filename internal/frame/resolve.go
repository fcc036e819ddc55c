package frame

import (
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is an immutable pose snapshot as produced by a pose source: the
// translation in the world ENU frame and the orientation of the vehicle body
// (baselink, forward-left-up) relative to it.
type Pose struct {
	Stamp       time.Time
	Translation r3.Vec
	Orientation quat.Number
}

// Resolved is a pose converted into the representation a MAV_FRAME expects:
// the remapped translation, the remapped orientation, and the yaw scalar
// extracted from it. Roll and pitch are discarded by the protocol; only yaw
// is transmitted.
type Resolved struct {
	Translation r3.Vec
	Orientation quat.Number
	Yaw         float64
}

// Static rotations between the frame conventions. nedENU rotates ENU world
// axes into NED; aircraftBaselink rotates the forward-left-up body frame
// into forward-right-down.
var (
	nedENU           = quatFromRPY(math.Pi, 0, math.Pi/2)
	aircraftBaselink = quatFromRPY(math.Pi, 0, 0)
)

// Resolve converts a pose into the representation required by the given
// frame. It is a pure function: NaN components propagate unchanged and there
// is no failure mode.
//
// Body-relative frames get only the baselink-to-aircraft body remap. World
// frames additionally get the ENU-to-NED world flip, applied to the
// translation directly and to the orientation by rotation composition.
func Resolve(p Pose, f Frame) Resolved {
	q := quat.Mul(p.Orientation, aircraftBaselink)

	var t r3.Vec
	if f.BodyRelative() {
		t = baselinkToAircraft(p.Translation)
	} else {
		t = enuToNED(p.Translation)
		q = quat.Mul(nedENU, q)
	}

	return Resolved{Translation: t, Orientation: q, Yaw: Yaw(q)}
}

// enuToNED remaps a world vector from east-north-up to north-east-down:
// (e, n, u) -> (n, e, -u).
func enuToNED(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.Y, Y: v.X, Z: -v.Z}
}

// baselinkToAircraft remaps a body vector from forward-left-up to
// forward-right-down: (x, y, z) -> (x, -y, -z).
func baselinkToAircraft(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: -v.Y, Z: -v.Z}
}

// Yaw extracts the rotation about the vertical axis from a quaternion,
// discarding roll and pitch.
func Yaw(q quat.Number) float64 {
	return math.Atan2(
		2*(q.Real*q.Kmag+q.Imag*q.Jmag),
		1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag),
	)
}

// quatFromRPY builds a quaternion from roll, pitch, and yaw using the ZYX
// convention (yaw about Z, then pitch about Y, then roll about X).
func quatFromRPY(roll, pitch, yaw float64) quat.Number {
	qx := quat.Number{Real: math.Cos(roll / 2), Imag: math.Sin(roll / 2)}
	qy := quat.Number{Real: math.Cos(pitch / 2), Jmag: math.Sin(pitch / 2)}
	qz := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
	return quat.Mul(qz, quat.Mul(qy, qx))
}
