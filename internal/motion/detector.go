// Package motion turns a stream of accelerometer samples into debounced
// "advance" signals.
package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reference detector parameters, used for any unset Config field.
const (
	DefaultThreshold      = 1.78
	DefaultDebounce       = 1000 * time.Millisecond
	DefaultSettleDelay    = 500 * time.Millisecond
	DefaultSampleInterval = 100 * time.Millisecond
)

// Sample is one 3-axis acceleration reading.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns the total force of the sample.
func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// Config holds the detector parameters.
type Config struct {
	Threshold      float64       // magnitude that must be exceeded
	Debounce       time.Duration // minimum gap between accepted shakes
	SettleDelay    time.Duration // wait before signalling an accepted shake
	SampleInterval time.Duration // rate the sensor should be sampled at
}

// DefaultConfig returns the reference detector parameters.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		Debounce:       DefaultDebounce,
		SettleDelay:    DefaultSettleDelay,
		SampleInterval: DefaultSampleInterval,
	}
}

// Detector is a debounced edge trigger on sample magnitude.
type Detector struct {
	cfg    Config
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	lastTrigger time.Time
	lastSample  time.Time // stream clock of the previous sample
}

// NewDetector creates a detector. Zero config fields take the defaults.
func NewDetector(cfg Config, logger *zap.Logger) *Detector {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = def.SampleInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, now: time.Now, logger: logger}
}

// Config returns the effective parameters.
func (d *Detector) Config() Config {
	return d.cfg
}

// Observe records the next sample of the stream and reports whether it is
// an accepted shake.
func (d *Detector) Observe(s Sample) bool {
	return d.observeAt(s, d.sampleTime())
}

// sampleTime places the next sample on the stream clock. Consecutive
// samples are at least SampleInterval apart, so a batch delivered at once
// keeps the spacing it was recorded with. The clock never runs behind
// wall time.
func (d *Detector) sampleTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	at := d.now()
	if !d.lastSample.IsZero() {
		if next := d.lastSample.Add(d.cfg.SampleInterval); next.After(at) {
			at = next
		}
	}
	d.lastSample = at
	return at
}

func (d *Detector) observeAt(s Sample, at time.Time) bool {
	if s.Magnitude() <= d.cfg.Threshold {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.lastTrigger.IsZero() && at.Sub(d.lastTrigger) <= d.cfg.Debounce {
		return false
	}
	d.lastTrigger = at
	return true
}

// Run consumes samples until ctx is done or the channel closes. Each
// accepted shake calls onShake once after the settle delay, unless ctx
// ends first.
func (d *Detector) Run(ctx context.Context, samples <-chan Sample, onShake func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			if !d.Observe(s) {
				continue
			}
			d.logger.Debug("motion: shake detected", zap.Float64("magnitude", s.Magnitude()))
			go d.settle(ctx, onShake)
		}
	}
}

func (d *Detector) settle(ctx context.Context, onShake func()) {
	if d.cfg.SettleDelay <= 0 {
		onShake()
		return
	}

	timer := time.NewTimer(d.cfg.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		onShake()
	}
}
