package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/sleep"
)

// NightGeneratorConfig configures the synthetic sleep data generator
type NightGeneratorConfig struct {
	Nights         int            `json:"nights"`
	LastWake       time.Time      `json:"last_wake"` // local wake-up of the final night
	Location       *time.Location `json:"-"`
	SampleInterval time.Duration  `json:"sample_interval"`
	NapEvery       int            `json:"nap_every"` // every Nth day gets an afternoon nap; 0 disables
	Seed           int64          `json:"seed"`
}

// DefaultNightConfig returns two weeks of nights ending 2024-03-09 07:00 UTC
func DefaultNightConfig() NightGeneratorConfig {
	return NightGeneratorConfig{
		Nights:         14,
		LastWake:       time.Date(2024, 3, 9, 7, 0, 0, 0, time.UTC),
		Location:       time.UTC,
		SampleInterval: 240 * time.Second,
		NapEvery:       3,
		Seed:           42,
	}
}

// Dataset is one generated history
type Dataset struct {
	Aggregates []sleep.AggregateRecord
	Samples    []sleep.SamplePoint
}

// NightGenerator generates plausible nights: 90-minute cycles of
// light, deep, light and REM with occasional awakenings
type NightGenerator struct {
	config NightGeneratorConfig
	rng    *rand.Rand
}

// NewNightGenerator creates a new generator
func NewNightGenerator(config NightGeneratorConfig) *NightGenerator {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.SampleInterval <= 0 {
		config.SampleInterval = 240 * time.Second
	}
	return &NightGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces Nights nights, oldest first. Each aggregate is stamped at
// the wake-up instant of its session.
func (g *NightGenerator) Generate() (Dataset, error) {
	if g.config.Nights < 1 {
		return Dataset{}, fmt.Errorf("nights must be positive, got %d", g.config.Nights)
	}
	if g.config.LastWake.IsZero() {
		return Dataset{}, fmt.Errorf("last wake time is required")
	}

	var ds Dataset
	lastWake := g.config.LastWake.In(g.config.Location)
	for i := g.config.Nights - 1; i >= 0; i-- {
		wake := lastWake.AddDate(0, 0, -i).Add(g.jitter(40 * time.Minute))
		rec, samples := g.night(wake)
		ds.Aggregates = append(ds.Aggregates, rec)
		ds.Samples = append(ds.Samples, samples...)

		if g.config.NapEvery > 0 && i%g.config.NapEvery == 0 {
			nap := time.Date(wake.Year(), wake.Month(), wake.Day(), 14, 30, 0, 0, g.config.Location)
			ds.Samples = append(ds.Samples, g.nap(nap.Add(g.jitter(10*time.Minute)))...)
		}
	}
	return ds, nil
}

// night builds the samples of one main sleep ending at wake and its summary
func (g *NightGenerator) night(wake time.Time) (sleep.AggregateRecord, []sleep.SamplePoint) {
	total := time.Duration(6.5*float64(time.Hour)) + time.Duration(g.rng.Int63n(int64(2*time.Hour)))
	step := g.config.SampleInterval
	n := int(total / step)
	bed := wake.Add(-time.Duration(n) * step)

	samples := make([]sleep.SamplePoint, 0, n)
	seconds := map[sleep.StageCode]float64{}
	awakenings := 0
	prev := sleep.StageAwake
	for k := 0; k < n; k++ {
		stage := g.stageAt(time.Duration(k) * step)
		if stage == sleep.StageAwake && prev != sleep.StageAwake && k > 0 {
			awakenings++
		}
		prev = stage
		seconds[stage] += step.Seconds()
		samples = append(samples, sleep.SamplePoint{
			Timestamp:       core.NewInstant(bed.Add(time.Duration(k) * step)),
			Stage:           core.Some(stage),
			DurationSeconds: core.Some(step.Seconds()),
		})
	}

	asleep := seconds[sleep.StageDeep] + seconds[sleep.StageLight] + seconds[sleep.StageREM]
	rec := sleep.AggregateRecord{
		Timestamp:            core.NewInstant(wake),
		CalendarDate:         wake.Format(time.DateOnly),
		AvgSleepStress:       core.Some(round1(12 + g.rng.Float64()*20)),
		AwakeCount:           core.Some(float64(awakenings)),
		AwakeSleepSeconds:    core.Some(seconds[sleep.StageAwake]),
		DeepSleepSeconds:     core.Some(seconds[sleep.StageDeep]),
		RemSleepSeconds:      core.Some(seconds[sleep.StageREM]),
		RestingHeartRate:     core.Some(float64(48 + g.rng.Intn(12))),
		RestlessMomentsCount: core.Some(float64(15 + g.rng.Intn(45))),
		SleepScore:           core.Some(math.Min(100, math.Round(50+asleep/3600*5+g.rng.Float64()*8))),
		SleepTimeSeconds:     core.Some(asleep),
	}
	return rec, samples
}

// nap is 20-40 minutes of light sleep with no summary of its own
func (g *NightGenerator) nap(start time.Time) []sleep.SamplePoint {
	step := g.config.SampleInterval
	n := int((20*time.Minute + time.Duration(g.rng.Int63n(int64(20*time.Minute)))) / step)
	samples := make([]sleep.SamplePoint, 0, n)
	for k := 0; k < n; k++ {
		samples = append(samples, sleep.SamplePoint{
			Timestamp: core.NewInstant(start.Add(time.Duration(k) * step)),
			Stage:     core.Some(sleep.StageLight),
		})
	}
	return samples
}

// stageAt picks the stage for an offset into the night
func (g *NightGenerator) stageAt(offset time.Duration) sleep.StageCode {
	if g.rng.Float64() < 0.03 {
		return sleep.StageAwake
	}
	cycle := offset % (90 * time.Minute)
	switch {
	case cycle < 20*time.Minute:
		return sleep.StageLight
	case cycle < 45*time.Minute:
		// deep sleep fades in later cycles
		if offset > 4*time.Hour && g.rng.Float64() < 0.6 {
			return sleep.StageLight
		}
		return sleep.StageDeep
	case cycle < 70*time.Minute:
		return sleep.StageLight
	default:
		return sleep.StageREM
	}
}

func (g *NightGenerator) jitter(max time.Duration) time.Duration {
	return time.Duration(g.rng.Int63n(int64(2*max))) - max
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
