package snapshot

import (
	"strings"
	"testing"
)

func elev(vals ...float32) *Snapshot {
	s := New("stage", 1)
	s.SetChannel(ChannelElevation, vals)
	return s
}

func TestNew(t *testing.T) {
	s := New("erosion", 3)
	if s.StageName != "erosion" || s.StageID != 3 {
		t.Errorf("New: got (%q, %d), want (erosion, 3)", s.StageName, s.StageID)
	}
	if s.Timestamp.IsZero() {
		t.Error("Timestamp: expected non-zero")
	}
	if s.HasElevation() {
		t.Error("HasElevation on empty snapshot: expected false")
	}
}

func TestChannelRoundTrip(t *testing.T) {
	s := New("stage", 1)
	s.SetChannel("moisture", []float32{0.1, 0.2})

	data, ok := s.Channel("moisture")
	if !ok {
		t.Fatal("Channel: expected moisture to exist")
	}
	if len(data) != 2 || data[0] != 0.1 {
		t.Errorf("Channel data: got %v", data)
	}
	if _, ok := s.Channel("temperature"); ok {
		t.Error("Channel: expected temperature to be absent")
	}
}

func TestHasChannel_EmptySliceCounts(t *testing.T) {
	// Presence and emptiness are distinct conditions; ValidatePair tells
	// them apart.
	s := New("stage", 1)
	s.SetChannel(ChannelElevation, []float32{})
	if !s.HasChannel(ChannelElevation) {
		t.Error("HasChannel: expected true for empty but present channel")
	}
}

func TestChannelNames_Sorted(t *testing.T) {
	s := New("stage", 1)
	s.SetChannel("zeta", nil)
	s.SetChannel("alpha", nil)
	s.SetChannel("mid", nil)

	names := s.ChannelNames()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("ChannelNames: got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ChannelNames[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSetCoords(t *testing.T) {
	s := New("stage", 1)
	if s.Coords() != nil {
		t.Error("Coords: expected nil before SetCoords")
	}
	s.SetCoords([]Coord{{Lat: 48.1, Lon: 11.5}})
	if got := s.Coords(); len(got) != 1 || got[0].Lat != 48.1 {
		t.Errorf("Coords: got %v", got)
	}
}

func TestValidatePair(t *testing.T) {
	tests := []struct {
		name    string
		before  *Snapshot
		after   *Snapshot
		wantErr string
	}{
		{"valid", elev(1, 2, 3), elev(4, 5, 6), ""},
		{"nil before", nil, elev(1), "missing snapshot"},
		{"nil after", elev(1), nil, "missing snapshot"},
		{"no elevation before", New("s", 1), elev(1), "missing elevation data"},
		{"no elevation after", elev(1), New("s", 1), "missing elevation data"},
		{"size mismatch", elev(1, 2), elev(1, 2, 3), "size mismatch"},
		{"both empty", elev(), elev(), "empty elevation data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePair(tt.before, tt.after)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePair: unexpected error %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidatePair: expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidatePair: got %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
