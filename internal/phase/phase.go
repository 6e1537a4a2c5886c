// Package phase owns the six bridge drive lines. Exactly one owner holds them
// at a time: Lines drives them as push-pull outputs, PWMLines routes them to
// the timer. Converting between the two is a move; the old value is left
// inert and every further call on it returns ErrReleased.
package phase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openbench/phasebridge/internal/hardware"
)

// ErrReleased is returned by an owner whose lines were moved to the other owner.
var ErrReleased = errors.New("phase: lines released to another owner")

// Phase identifies one half-bridge leg (and its PWM channel).
type Phase uint8

const (
	A Phase = iota
	B
	C
)

// Phases lists every leg in channel order.
var Phases = [3]Phase{A, B, C}

func (p Phase) String() string {
	switch p {
	case A:
		return "a"
	case B:
		return "b"
	case C:
		return "c"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) Valid() bool { return p <= C }

// ParsePhase accepts "a", "b" or "c" in either case.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "a":
		return A, nil
	case "b":
		return B, nil
	case "c":
		return C, nil
	}
	return 0, fmt.Errorf("phase: unknown phase %q", s)
}

// LegState is the Manual-mode switching state of one leg.
type LegState uint8

const (
	BothOff LegState = iota
	HighSideOn
	LowSideOn
)

func (s LegState) String() string {
	switch s {
	case BothOff:
		return "off"
	case HighSideOn:
		return "high"
	case LowSideOn:
		return "low"
	}
	return fmt.Sprintf("leg(%d)", uint8(s))
}

// ParseLegState accepts the names produced by String.
func ParseLegState(s string) (LegState, error) {
	switch strings.ToLower(s) {
	case "off":
		return BothOff, nil
	case "high":
		return HighSideOn, nil
	case "low":
		return LowSideOn, nil
	}
	return 0, fmt.Errorf("phase: unknown leg state %q", s)
}

// Mode is the bridge control mode.
type Mode uint8

const (
	Manual Mode = iota
	Commutated
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Commutated:
		return "commutated"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode accepts "manual", or "commutated" and its console alias "pwm".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "manual":
		return Manual, nil
	case "commutated", "pwm":
		return Commutated, nil
	}
	return 0, fmt.Errorf("phase: unknown mode %q", s)
}

// legPins maps each leg to its (high, low) drive line.
var legPins = [3][2]hardware.Pin{
	A: {hardware.PinAH, hardware.PinAL},
	B: {hardware.PinBH, hardware.PinBL},
	C: {hardware.PinCH, hardware.PinCL},
}

// Pins returns the high and low drive lines of leg p.
func Pins(p Phase) (high, low hardware.Pin) {
	return legPins[p][0], legPins[p][1]
}
