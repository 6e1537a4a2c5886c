// Package command defines the operator commands the console and the HTTP API
// submit to the control loop.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/openbench/phasebridge/internal/gatedrv"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/phase"
)

// Kind selects what a Command does.
type Kind uint8

const (
	Query Kind = iota // no change, report the bridge state
	SetLeg
	SetMode
	SetDuty
	Driver
)

func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case SetLeg:
		return "set_leg"
	case SetMode:
		return "set_mode"
	case SetDuty:
		return "set_duty"
	case Driver:
		return "driver"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// DriverOp is a gate driver operation.
type DriverOp uint8

const (
	DriverOn DriverOp = iota
	DriverOff
	DriverRegs
	DriverGain
	DriverReset
)

// Command is one operator request.
type Command struct {
	Kind    Kind
	Phase   phase.Phase
	Leg     phase.LegState
	Mode    phase.Mode
	Percent int
	Driver  DriverOp
	Gain    int
}

// Bridge is the part of the controller commands act on.
type Bridge interface {
	State(ctx context.Context) models.BridgeState
	SetLeg(ctx context.Context, p phase.Phase, s phase.LegState) (models.BridgeState, *models.AppError)
	SetMode(ctx context.Context, m phase.Mode) (models.BridgeState, *models.AppError)
	SetDuty(ctx context.Context, p phase.Phase, percent int) (models.BridgeState, *models.AppError)
}

// GateDriver is the part of the gate driver commands act on.
type GateDriver interface {
	SetEnabled(ctx context.Context, on bool) error
	DumpRegisters(ctx context.Context) error
	SetGain(ctx context.Context, gain int) error
	Reset(ctx context.Context) error
}

// Apply runs c against the bridge and gate driver. drv may be nil.
func (c Command) Apply(ctx context.Context, b Bridge, drv GateDriver) (models.BridgeState, *models.AppError) {
	switch c.Kind {
	case Query:
		return b.State(ctx), nil
	case SetLeg:
		return b.SetLeg(ctx, c.Phase, c.Leg)
	case SetMode:
		return b.SetMode(ctx, c.Mode)
	case SetDuty:
		return b.SetDuty(ctx, c.Phase, c.Percent)
	case Driver:
		return b.State(ctx), applyDriver(ctx, c, drv)
	}
	return b.State(ctx), models.ErrBadRequest(fmt.Sprintf("unknown command kind %d", uint8(c.Kind)))
}

func applyDriver(ctx context.Context, c Command, drv GateDriver) *models.AppError {
	if drv == nil {
		return models.ErrInternal("no gate driver")
	}
	var err error
	switch c.Driver {
	case DriverOn:
		err = drv.SetEnabled(ctx, true)
	case DriverOff:
		err = drv.SetEnabled(ctx, false)
	case DriverRegs:
		err = drv.DumpRegisters(ctx)
	case DriverGain:
		err = drv.SetGain(ctx, c.Gain)
	case DriverReset:
		err = drv.Reset(ctx)
	default:
		return models.ErrBadRequest(fmt.Sprintf("unknown driver operation %d", uint8(c.Driver)))
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gatedrv.ErrUnsupported):
		return models.ErrUnsupported("gate driver register access is not supported")
	default:
		return models.ErrHardware(err.Error())
	}
}
