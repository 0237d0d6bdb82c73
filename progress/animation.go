// Package progress drives the staged progress display of long admin
// operations and the process-wide flag that keeps two of them from running
// at once.
package progress

import (
	"math"
	"time"
)

// Stage is one named phase of the display. Targets are percentages and
// only ever increase from one stage to the next.
type Stage struct {
	Label    string
	Target   float64
	Duration time.Duration
}

// SyncStages is the fixed schedule shown while class schedules are
// imported. The timings are placeholders, not measurements of the backend
// job.
var SyncStages = []Stage{
	{Label: "Connecting to the schedule service", Target: 12, Duration: 1500 * time.Millisecond},
	{Label: "Downloading class schedules", Target: 40, Duration: 4 * time.Second},
	{Label: "Matching groups and rooms", Target: 65, Duration: 3 * time.Second},
	{Label: "Creating bookings", Target: 90, Duration: 3500 * time.Millisecond},
	{Label: "Finishing up", Target: 100, Duration: 1500 * time.Millisecond},
}

type Phase string

const (
	Idle      Phase = "idle"
	Running   Phase = "running"
	Completed Phase = "completed"
)

type Snapshot struct {
	Phase    Phase   `json:"phase"`
	Stage    int     `json:"stage"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

// Animation is the idle -> running -> completed state machine. It holds no
// timer of its own; the caller feeds it the current time.
type Animation struct {
	stages     []Stage
	phase      Phase
	index      int
	stageStart time.Time
	stageFrom  float64
	progress   float64
	message    string
}

func NewAnimation(stages []Stage) *Animation {
	clean := make([]Stage, len(stages))
	floor := 0.0
	for i, s := range stages {
		target := math.Min(100, math.Max(floor, s.Target))
		clean[i] = Stage{Label: s.Label, Target: target, Duration: s.Duration}
		floor = target
	}
	return &Animation{stages: clean, phase: Idle}
}

func (a *Animation) Start(now time.Time) Snapshot {
	if a.phase != Idle {
		return a.Snapshot()
	}
	if len(a.stages) == 0 {
		a.complete()
		return a.Snapshot()
	}
	a.phase = Running
	a.index = 0
	a.stageStart = now
	a.stageFrom = 0
	a.progress = 0
	a.message = a.stages[0].Label
	return a.Snapshot()
}

// Tick advances the display to now. At most one stage boundary is crossed
// per tick; the next stage starts timing from now.
func (a *Animation) Tick(now time.Time) Snapshot {
	if a.phase != Running {
		return a.Snapshot()
	}

	stage := a.stages[a.index]
	elapsed := now.Sub(a.stageStart)
	if elapsed >= stage.Duration {
		a.setProgress(stage.Target)
		a.index++
		if a.index >= len(a.stages) {
			a.complete()
			return a.Snapshot()
		}
		a.stageStart = now
		a.stageFrom = stage.Target
		a.message = a.stages[a.index].Label
		return a.Snapshot()
	}

	fraction := 0.0
	if stage.Duration > 0 {
		fraction = float64(elapsed) / float64(stage.Duration)
	}
	eased := Ease(clamp(fraction, 0, 1))
	a.setProgress(a.stageFrom + (stage.Target-a.stageFrom)*eased)
	return a.Snapshot()
}

func (a *Animation) Snapshot() Snapshot {
	return Snapshot{Phase: a.phase, Stage: a.index, Message: a.message, Progress: a.progress}
}

func (a *Animation) Done() bool {
	return a.phase == Completed
}

func (a *Animation) setProgress(p float64) {
	if p > a.progress {
		a.progress = p
	}
}

func (a *Animation) complete() {
	a.phase = Completed
	a.progress = 100
	a.index = len(a.stages)
	if len(a.stages) > 0 {
		a.message = a.stages[len(a.stages)-1].Label
	}
}

// Ease is a cosine ease-in-out over [0, 1].
func Ease(fraction float64) float64 {
	return 0.5 - 0.5*math.Cos(fraction*math.Pi)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
