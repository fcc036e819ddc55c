package frame

import (
	"errors"
	"testing"
)

func TestFromID(t *testing.T) {
	tests := []struct {
		name    string
		id      uint8
		want    Frame
		wantErr bool
	}{
		{"local ned", 1, LocalNED, false},
		{"local enu", 4, LocalENU, false},
		{"local offset ned", 7, LocalOffsetNED, false},
		{"body ned", 8, BodyNED, false},
		{"body offset ned", 9, BodyOffsetNED, false},
		{"global is not a local setpoint frame", 0, 0, true},
		{"mission frame rejected", 2, 0, true},
		{"out of range", 200, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFrame) {
					t.Fatalf("FromID(%d) error = %v, want ErrUnknownFrame", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromID(%d) unexpected error: %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("FromID(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestFromNameRoundTrip(t *testing.T) {
	for _, f := range []Frame{LocalNED, LocalENU, LocalOffsetNED, BodyNED, BodyOffsetNED} {
		got, err := FromName(f.String())
		if err != nil {
			t.Fatalf("FromName(%q) unexpected error: %v", f.String(), err)
		}
		if got != f {
			t.Errorf("FromName(%q) = %v, want %v", f.String(), got, f)
		}
	}

	if _, err := FromName("GLOBAL_TERRAIN_ALT"); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("FromName of unsupported frame: error = %v, want ErrUnknownFrame", err)
	}
}

func TestBodyRelative(t *testing.T) {
	if LocalNED.BodyRelative() || LocalENU.BodyRelative() || LocalOffsetNED.BodyRelative() {
		t.Error("world-fixed frames must not report body relative")
	}
	if !BodyNED.BodyRelative() || !BodyOffsetNED.BodyRelative() {
		t.Error("body frames must report body relative")
	}
}

func TestFromPersistedName(t *testing.T) {
	if got := FromPersistedName("BODY_NED"); got != BodyNED {
		t.Errorf("persisted BODY_NED resolved to %v", got)
	}
	// Absent and unrecognized names both resolve to the documented default
	// rather than propagating an error.
	if got := FromPersistedName(""); got != Default {
		t.Errorf("absent persisted name resolved to %v, want %v", got, Default)
	}
	if got := FromPersistedName("LOCAL_FLU"); got != Default {
		t.Errorf("unrecognized persisted name resolved to %v, want %v", got, Default)
	}
}

func TestStringOutsideEnumeration(t *testing.T) {
	if got := Frame(42).String(); got != "MAV_FRAME(42)" {
		t.Errorf("String() = %q", got)
	}
}
