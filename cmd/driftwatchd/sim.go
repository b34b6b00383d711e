package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/driftwatch/driftwatch/internal/pipeline"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

const (
	simGridSide   = 64
	simBaseHeight = 1200.0
)

// simStage is a synthetic pipeline stage producing a smooth elevation
// field with stage-dependent noise, so the daemon has real transitions to
// analyze without an attached engine.
type simStage struct {
	id    uint32
	name  string
	noise float64
	rng   *rand.Rand
}

func registerSimStages(sys *pipeline.System, count int) {
	for i := 0; i < count; i++ {
		sys.RegisterStage(&simStage{
			id:    uint32(i + 1),
			name:  fmt.Sprintf("sim-stage-%d", i+1),
			noise: 5 * float64(i+1),
			rng:   rand.New(rand.NewSource(int64(i + 1))),
		})
	}
}

func (s *simStage) StageID() uint32   { return s.id }
func (s *simStage) StageName() string { return s.name }

func (s *simStage) CaptureOutputSnapshot() *snapshot.Snapshot { return s.capture() }
func (s *simStage) CaptureInputSnapshot() *snapshot.Snapshot  { return s.capture() }

func (s *simStage) capture() *snapshot.Snapshot {
	n := simGridSide * simGridSide
	elev := make([]float32, n)
	for y := 0; y < simGridSide; y++ {
		for x := 0; x < simGridSide; x++ {
			base := simBaseHeight +
				200*math.Sin(float64(x)/9) +
				150*math.Cos(float64(y)/7)
			jitter := (s.rng.Float64()*2 - 1) * s.noise
			elev[y*simGridSide+x] = float32(base + jitter)
		}
	}

	snap := snapshot.New(s.name, s.id)
	snap.Resolution = simGridSide
	snap.SetChannel(snapshot.ChannelElevation, elev)
	return snap
}
