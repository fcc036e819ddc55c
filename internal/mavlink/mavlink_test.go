package mavlink

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestSetPositionTargetPayloadLayout(t *testing.T) {
	msg := &SetPositionTargetLocalNed{
		TimeBootMS:      1500,
		X:               2, Y: 1, Z: -3,
		Yaw:             1.5707964,
		TypeMask:        0x0DF8,
		TargetSystem:    1,
		TargetComponent: 1,
		CoordinateFrame: 1,
	}

	p := msg.MarshalPayload()
	if len(p) != 53 {
		t.Fatalf("payload length = %d, want 53", len(p))
	}

	if got := binary.LittleEndian.Uint32(p[0:]); got != 1500 {
		t.Errorf("time_boot_ms = %d, want 1500", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p[4:])); got != 2 {
		t.Errorf("x = %v, want 2", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p[12:])); got != -3 {
		t.Errorf("z = %v, want -3", got)
	}
	// Velocity and acceleration slots stay zero.
	for off := 16; off < 40; off += 4 {
		if got := binary.LittleEndian.Uint32(p[off:]); got != 0 {
			t.Errorf("offset %d = %#x, want zero", off, got)
		}
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p[40:])); got != 1.5707964 {
		t.Errorf("yaw = %v", got)
	}
	if got := binary.LittleEndian.Uint16(p[48:]); got != 0x0DF8 {
		t.Errorf("type_mask = %#04x, want 0x0df8", got)
	}
	if p[50] != 1 || p[51] != 1 || p[52] != 1 {
		t.Errorf("trailer bytes = % x", p[50:])
	}
}

func TestEncodeFrame(t *testing.T) {
	msg := &SetPositionTargetLocalNed{TimeBootMS: 42, CoordinateFrame: 8}
	frame := EncodeFrame(7, 255, 190, msg)

	if len(frame) != 8+53 {
		t.Fatalf("frame length = %d, want 61", len(frame))
	}
	if frame[0] != 0xFE {
		t.Errorf("magic = %#02x, want 0xfe", frame[0])
	}
	if frame[1] != 53 {
		t.Errorf("payload length byte = %d, want 53", frame[1])
	}
	if frame[2] != 7 || frame[3] != 255 || frame[4] != 190 {
		t.Errorf("seq/sysid/compid = % x", frame[2:5])
	}
	if frame[5] != MsgIDSetPositionTargetLocalNed {
		t.Errorf("msgid = %d, want 84", frame[5])
	}

	// Recompute the checksum over len..payload plus the CRC extra.
	x := NewX25()
	x.Write(frame[1 : len(frame)-2])
	x.WriteByte(msg.CRCExtra())
	want := x.Sum16()
	got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if got != want {
		t.Errorf("checksum = %#04x, want %#04x", got, want)
	}
}

func TestEncodeFrameSequenceVaries(t *testing.T) {
	msg := &SetPositionTargetLocalNed{}
	a := EncodeFrame(0, 1, 1, msg)
	b := EncodeFrame(1, 1, 1, msg)
	if a[2] == b[2] {
		t.Error("sequence byte did not change")
	}
	// A different sequence must change the checksum as well.
	if a[len(a)-2] == b[len(b)-2] && a[len(a)-1] == b[len(b)-1] {
		t.Error("checksum identical across different sequence numbers")
	}
}
