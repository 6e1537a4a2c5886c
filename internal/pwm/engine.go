// Package pwm drives the bridge from TIM1: three center-aligned complementary
// channels sharing one period, with fixed hardware dead time and duty updates
// that land on a single period boundary.
package pwm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/phase"
)

// DefaultFrequency is the bridge switching frequency.
const DefaultFrequency = 20 * physic.KiloHertz

// DeadTime is the BDTR.DTG value inserted between a leg's complementary
// edges. With CKD=div1 and DTG<128 this is DTG timer ticks.
const DeadTime uint32 = 127

// ErrBadConfig is returned when the clock and frequency do not give a
// usable 16-bit period.
var ErrBadConfig = errors.New("pwm: bad timer configuration")

// DefaultDuty is the duty every phase starts at.
const DefaultDuty = 50

// Config selects the timer clock and target switching frequency.
type Config struct {
	CoreClock physic.Frequency
	Frequency physic.Frequency
}

// DefaultConfig returns the board clock at DefaultFrequency.
func DefaultConfig() Config {
	return Config{
		CoreClock: hardware.CoreClockHz * physic.Hertz,
		Frequency: DefaultFrequency,
	}
}

// Period returns the auto-reload value core clock / frequency. The counter
// runs center-aligned, so the outputs switch at CoreClock/(2*Period).
func (c Config) Period() (uint32, error) {
	if c.CoreClock <= 0 || c.Frequency <= 0 {
		return 0, fmt.Errorf("%w: clock %s, frequency %s", ErrBadConfig, c.CoreClock, c.Frequency)
	}
	q := int64(c.CoreClock / c.Frequency)
	if q == 0 || q > 0xFFFF {
		return 0, fmt.Errorf("%w: period %d out of range for %s / %s", ErrBadConfig, q, c.CoreClock, c.Frequency)
	}
	return uint32(q), nil
}

// DeadTimeDuration converts DeadTime into wall time at the given timer clock.
func DeadTimeDuration(clock physic.Frequency) time.Duration {
	if clock <= 0 {
		return 0
	}
	return time.Duration(int64(DeadTime) * int64(time.Second) * int64(physic.Hertz) / int64(clock))
}

// channel register sets, indexed by phase.
var (
	ccr = [3]hardware.TimerReg{hardware.TimCCR1, hardware.TimCCR2, hardware.TimCCR3}

	ccerOutputs = hardware.CCERCC1P | hardware.CCERCC1E | hardware.CCERCC1NE |
		hardware.CCERCC2P | hardware.CCERCC2E | hardware.CCERCC2NE |
		hardware.CCERCC3P | hardware.CCERCC3E | hardware.CCERCC3NE

	idleLevels = hardware.CR2OIS1 | hardware.CR2OIS1N |
		hardware.CR2OIS2 | hardware.CR2OIS2N |
		hardware.CR2OIS3 | hardware.CR2OIS3N
)

// Engine is a running TIM1 PWM generator. It holds the drive lines for as
// long as it runs.
type Engine struct {
	tim     hardware.Timer
	lines   *phase.PWMLines
	cfg     Config
	duty    [3]int
	compare [3]uint32
}

// seq applies a register sequence and keeps the first error.
type seq struct {
	ctx context.Context
	tim hardware.Timer
	err error
}

func (s *seq) write(reg hardware.TimerReg, val uint32) {
	if s.err != nil {
		return
	}
	if err := s.tim.Write(s.ctx, reg, val); err != nil {
		s.err = fmt.Errorf("pwm: write %s: %w", reg, err)
	}
}

func (s *seq) modify(reg hardware.TimerReg, clear, set uint32) {
	if s.err != nil {
		return
	}
	if err := s.tim.Modify(s.ctx, reg, clear, set); err != nil {
		s.err = fmt.Errorf("pwm: modify %s: %w", reg, err)
	}
}

// Start programs TIM1 and enables its outputs with every phase at
// DefaultDuty. On success the engine takes lines; on error the caller keeps
// them and the timer outputs are left disabled.
func Start(ctx context.Context, tim hardware.Timer, lines *phase.PWMLines, cfg Config) (*Engine, error) {
	if lines == nil || lines.Released() {
		return nil, phase.ErrReleased
	}
	arr, err := cfg.Period()
	if err != nil {
		return nil, err
	}

	if err := tim.Reset(ctx); err != nil {
		return nil, fmt.Errorf("pwm: %w", err)
	}

	half := arr / 2
	s := &seq{ctx: ctx, tim: tim}
	s.modify(hardware.TimCR1, hardware.CR1CMSMask|hardware.CR1CKDMask, hardware.CR1CMSCenter)
	s.write(hardware.TimARR, arr)
	s.write(hardware.TimPSC, 0)
	s.write(hardware.TimRCR, 0)
	s.write(hardware.TimCCER, 0)
	s.modify(hardware.TimCR2, 0, idleLevels)
	s.modify(hardware.TimCCMR1, hardware.CCMROC1MMask|hardware.CCMROC2MMask,
		hardware.CCMROC1MPWM1|hardware.CCMROC2MPWM1)
	s.modify(hardware.TimCCMR2, hardware.CCMROC1MMask, hardware.CCMROC1MPWM1)
	for _, reg := range ccr {
		s.write(reg, half)
	}
	s.modify(hardware.TimCCER, 0, ccerOutputs)
	s.modify(hardware.TimCCMR1, 0, hardware.CCMROC1PE|hardware.CCMROC2PE)
	s.modify(hardware.TimCCMR2, 0, hardware.CCMROC1PE)
	s.write(hardware.TimBDTR, hardware.BDTROSSR|hardware.BDTROSSI|hardware.BDTRBKP|(DeadTime&hardware.BDTRDTGMask))
	s.modify(hardware.TimCR2, 0, hardware.CR2CCPC)
	s.modify(hardware.TimCR1, 0, hardware.CR1ARPE)
	s.write(hardware.TimEGR, hardware.EGRUG)
	s.modify(hardware.TimCR1, 0, hardware.CR1CEN)
	s.modify(hardware.TimBDTR, 0, hardware.BDTRMOE)
	if s.err != nil {
		halt(ctx, tim)
		return nil, s.err
	}

	e := &Engine{tim: tim, lines: lines, cfg: cfg}
	for i := range e.duty {
		e.duty[i] = DefaultDuty
		e.compare[i] = half
	}
	slog.Info("pwm: engine started",
		"frequency", cfg.Frequency,
		"realized", cfg.CoreClock/physic.Frequency(2*arr),
		"period", arr,
		"dead_time", DeadTimeDuration(cfg.CoreClock))
	return e, nil
}

// halt disables the main output and the counter, ignoring errors.
func halt(ctx context.Context, tim hardware.Timer) {
	if err := tim.Modify(ctx, hardware.TimBDTR, hardware.BDTRMOE, 0); err != nil {
		slog.Warn("pwm: main output disable failed", "err", err)
	}
	if err := tim.Modify(ctx, hardware.TimCR1, hardware.CR1CEN, 0); err != nil {
		slog.Warn("pwm: counter stop failed", "err", err)
	}
}

// clamp limits a duty request to [0,100].
func clamp(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}
	return percent
}

// UpdateDuty sets the duty of phase p. The percentage is clamped to [0,100]
// and scaled against the live ARR value. All three compare registers are
// rewritten inside a CR1.UDIS bracket so they reach the outputs on the same
// period boundary.
func (e *Engine) UpdateDuty(ctx context.Context, p phase.Phase, percent int) error {
	if e.lines == nil {
		return phase.ErrReleased
	}
	if !p.Valid() {
		return fmt.Errorf("pwm: invalid phase %d", uint8(p))
	}
	percent = clamp(percent)

	arr, err := e.tim.Read(ctx, hardware.TimARR)
	if err != nil {
		return fmt.Errorf("pwm: read ARR: %w", err)
	}
	compare := e.compare
	compare[p] = uint32(percent) * arr / 100

	s := &seq{ctx: ctx, tim: e.tim}
	s.modify(hardware.TimCR1, 0, hardware.CR1UDIS)
	for i, reg := range ccr {
		s.write(reg, compare[i])
	}
	if s.err != nil {
		e.restoreCompare(ctx)
		return s.err
	}
	s.modify(hardware.TimCR1, hardware.CR1UDIS, 0)
	if s.err != nil {
		return s.err
	}

	e.compare = compare
	e.duty[p] = percent
	slog.Debug("pwm: duty updated", "phase", p, "percent", percent, "compare", compare[p], "period", arr)
	return nil
}

// restoreCompare puts the last accepted compare values back into the preload
// registers, then re-enables update events. It runs after a failed write
// inside the UDIS bracket, so the next update event still loads the last
// valid duty.
func (e *Engine) restoreCompare(ctx context.Context) {
	for i, reg := range ccr {
		if err := e.tim.Write(ctx, reg, e.compare[i]); err != nil {
			slog.Error("pwm: restore compare failed", "reg", reg, "err", err)
		}
	}
	if err := e.tim.Modify(ctx, hardware.TimCR1, hardware.CR1UDIS, 0); err != nil {
		slog.Error("pwm: update re-enable failed", "err", err)
	}
}

// Duty returns the last duty set on phase p.
func (e *Engine) Duty(p phase.Phase) int { return e.duty[p] }

// Duties returns the duty of all three phases.
func (e *Engine) Duties() [3]int { return e.duty }

// Compare returns the compare value last written for phase p.
func (e *Engine) Compare(p phase.Phase) uint32 { return e.compare[p] }

// Config returns the configuration the engine was started with.
func (e *Engine) Config() Config { return e.cfg }

// Period reads the live ARR value.
func (e *Engine) Period(ctx context.Context) (uint32, error) {
	if e.lines == nil {
		return 0, phase.ErrReleased
	}
	return e.tim.Read(ctx, hardware.TimARR)
}

// Stop disables the main output and the counter, then moves the lines back
// to push-pull outputs with every leg BothOff. The engine is unusable
// afterwards. As with the phase moves, the returned Lines hold the drive
// lines even when err is non-nil.
func (e *Engine) Stop(ctx context.Context) (*phase.Lines, error) {
	if e.lines == nil {
		return nil, phase.ErrReleased
	}
	var stopErr error
	if err := e.tim.Modify(ctx, hardware.TimBDTR, hardware.BDTRMOE, 0); err != nil {
		stopErr = fmt.Errorf("pwm: main output disable: %w", err)
	} else if err := e.tim.Modify(ctx, hardware.TimCR1, hardware.CR1CEN, 0); err != nil {
		stopErr = fmt.Errorf("pwm: counter stop: %w", err)
	}

	pl := e.lines
	e.lines = nil
	lines, err := pl.IntoOutputs(ctx)
	if err != nil && stopErr == nil {
		stopErr = err
	}
	slog.Info("pwm: engine stopped")
	return lines, stopErr
}
