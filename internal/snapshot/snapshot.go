package snapshot

import (
	"fmt"
	"sort"
	"time"
)

// ChannelElevation is the one channel every analyzable snapshot must carry.
const ChannelElevation = "elevation"

// Coord is a lat/lon pair attached to one sample position.
type Coord struct {
	Lat float64
	Lon float64
}

// Snapshot captures the named data channels flowing out of (or into) one
// pipeline stage at a point in time. Channels are ordered sequences of
// 32-bit floats; channels present on both sides of a comparison must have
// equal length.
//
// A Snapshot is created by its stage and never mutated by the analysis
// subsystem. Callers must not modify channel slices after handing the
// snapshot over.
type Snapshot struct {
	StageName  string
	StageID    uint32
	Timestamp  time.Time
	Resolution uint32
	Seed       int64

	channels map[string][]float32
	coords   []Coord
}

// New creates an empty snapshot for the given stage, stamped with now.
func New(stageName string, stageID uint32) *Snapshot {
	return &Snapshot{
		StageName: stageName,
		StageID:   stageID,
		Timestamp: time.Now(),
		channels:  make(map[string][]float32),
	}
}

// SetChannel stores data under name, replacing any previous channel with
// that name. The snapshot takes ownership of the slice.
func (s *Snapshot) SetChannel(name string, data []float32) {
	if s.channels == nil {
		s.channels = make(map[string][]float32)
	}
	s.channels[name] = data
}

// Channel returns the data stored under name and whether it exists.
func (s *Snapshot) Channel(name string) ([]float32, bool) {
	data, ok := s.channels[name]
	return data, ok
}

// HasChannel reports whether a channel with the given name is present.
func (s *Snapshot) HasChannel(name string) bool {
	_, ok := s.channels[name]
	return ok
}

// Elevation returns the elevation channel, or nil if absent.
func (s *Snapshot) Elevation() []float32 {
	return s.channels[ChannelElevation]
}

// HasElevation reports whether the snapshot carries an elevation channel,
// the minimum requirement for any analysis.
func (s *Snapshot) HasElevation() bool {
	return s.HasChannel(ChannelElevation)
}

// ChannelNames returns the names of all channels, sorted for stable output.
func (s *Snapshot) ChannelNames() []string {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetCoords attaches per-sample lat/lon coordinates.
func (s *Snapshot) SetCoords(coords []Coord) {
	s.coords = coords
}

// Coords returns the per-sample coordinates, or nil if none were attached.
func (s *Snapshot) Coords() []Coord {
	return s.coords
}

// ValidatePair checks that before and after are comparable: both present,
// both carrying an elevation channel of equal, non-zero length. A nil
// error means the pair is safe to analyze.
func ValidatePair(before, after *Snapshot) error {
	if before == nil || after == nil {
		return fmt.Errorf("snapshot: missing snapshot")
	}
	if !before.HasElevation() || !after.HasElevation() {
		return fmt.Errorf("snapshot: missing elevation data for analysis")
	}
	b, a := before.Elevation(), after.Elevation()
	if len(b) != len(a) {
		return fmt.Errorf("snapshot: elevation data size mismatch (%d vs %d)", len(b), len(a))
	}
	if len(b) == 0 {
		return fmt.Errorf("snapshot: empty elevation data")
	}
	return nil
}
