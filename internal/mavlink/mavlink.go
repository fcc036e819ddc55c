// Package mavlink implements the minimal MAVLink v1 encoding this service
// needs to command a flight controller: frame assembly with the X25 checksum
// and the SET_POSITION_TARGET_LOCAL_NED message.
package mavlink

import (
	"encoding/binary"
	"math"
)

// magicV1 is the MAVLink v1 frame start marker.
const magicV1 = 0xFE

// Message is a MAVLink message that can be framed and sent. The payload
// layout is bit-significant: fields are little-endian in the v1 wire order
// (sorted by field size, declaration order within equal sizes).
type Message interface {
	MsgID() uint8
	CRCExtra() uint8
	MarshalPayload() []byte
}

// EncodeFrame assembles a complete v1 frame around msg:
// magic, payload length, sequence, system id, component id, message id,
// payload, and the X25 checksum seeded with the message's CRC extra.
func EncodeFrame(seq, sysID, compID uint8, msg Message) []byte {
	payload := msg.MarshalPayload()

	frame := make([]byte, 0, 8+len(payload))
	frame = append(frame, magicV1, uint8(len(payload)), seq, sysID, compID, msg.MsgID())
	frame = append(frame, payload...)

	// The checksum covers everything after the magic byte, plus the
	// per-message CRC extra.
	x := NewX25()
	x.Write(frame[1:])
	x.WriteByte(msg.CRCExtra())
	ck := x.Sum16()

	frame = append(frame, byte(ck&0xFF), byte(ck>>8))
	return frame
}

const (
	// MsgIDSetPositionTargetLocalNed is the SET_POSITION_TARGET_LOCAL_NED
	// message id.
	MsgIDSetPositionTargetLocalNed = 84

	setPositionTargetPayloadLen = 53
	setPositionTargetCRCExtra   = 143
)

// SetPositionTargetLocalNed mirrors SET_POSITION_TARGET_LOCAL_NED (msg 84):
// a position/velocity/acceleration target for the position controller. This
// service only ever asserts position and yaw; the type mask marks the rest
// ignored.
type SetPositionTargetLocalNed struct {
	TimeBootMS      uint32
	X, Y, Z         float32
	VX, VY, VZ      float32
	AFX, AFY, AFZ   float32
	Yaw, YawRate    float32
	TypeMask        uint16
	TargetSystem    uint8
	TargetComponent uint8
	CoordinateFrame uint8
}

// MsgID implements Message.
func (m *SetPositionTargetLocalNed) MsgID() uint8 {
	return MsgIDSetPositionTargetLocalNed
}

// CRCExtra implements Message.
func (m *SetPositionTargetLocalNed) CRCExtra() uint8 {
	return setPositionTargetCRCExtra
}

// MarshalPayload encodes the 53-byte little-endian payload in v1 wire order:
// time_boot_ms, x, y, z, vx, vy, vz, afx, afy, afz, yaw, yaw_rate,
// type_mask, target_system, target_component, coordinate_frame.
func (m *SetPositionTargetLocalNed) MarshalPayload() []byte {
	p := make([]byte, setPositionTargetPayloadLen)
	binary.LittleEndian.PutUint32(p[0:], m.TimeBootMS)
	putFloat32(p[4:], m.X)
	putFloat32(p[8:], m.Y)
	putFloat32(p[12:], m.Z)
	putFloat32(p[16:], m.VX)
	putFloat32(p[20:], m.VY)
	putFloat32(p[24:], m.VZ)
	putFloat32(p[28:], m.AFX)
	putFloat32(p[32:], m.AFY)
	putFloat32(p[36:], m.AFZ)
	putFloat32(p[40:], m.Yaw)
	putFloat32(p[44:], m.YawRate)
	binary.LittleEndian.PutUint16(p[48:], m.TypeMask)
	p[50] = m.TargetSystem
	p[51] = m.TargetComponent
	p[52] = m.CoordinateFrame
	return p
}

func putFloat32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}
