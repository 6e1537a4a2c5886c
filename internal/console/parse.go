// Package console implements the line-oriented operator console. Each line is
// one verb followed by its arguments; replies are short colored lines in the
// style of a serial terminal.
package console

import (
	"errors"
	"strconv"
	"strings"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/phase"
)

// Usage strings, shown after "Expected: ".
const (
	usageSw   = "sw ah/al/az bh/bl/bz ch/cl/cz"
	usageMode = "mode manual/pwm"
	usageDuty = "duty a/b/c <0-100>"
	usageDrv  = "drv on/off/regs/gain/reset"
)

// ParseError is a line that did not parse. Its text is the console reply.
type ParseError struct {
	Reply string
}

func (e *ParseError) Error() string { return e.Reply }

var (
	// ErrEmpty is returned for a blank line.
	ErrEmpty = &ParseError{Reply: "Empty command"}
	// ErrHelp is returned for "help"; the caller prints the verb list.
	ErrHelp = errors.New("console: help requested")
)

func expected(usage string) error { return &ParseError{Reply: "Expected: " + usage} }

func unknown(tok string) error { return &ParseError{Reply: "Unknown command: " + tok} }

// Parse turns one console line into a command.
func Parse(line string) (command.Command, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return command.Command{}, ErrEmpty
	}
	verb, args := args[0], args[1:]
	switch verb {
	case "sw":
		return parseSwitch(args)
	case "mode":
		return parseMode(args)
	case "duty":
		return parseDuty(args)
	case "drv":
		return parseDriver(args)
	case "status":
		return command.Command{Kind: command.Query}, nil
	case "help", "?":
		return command.Command{}, ErrHelp
	}
	return command.Command{}, unknown(verb)
}

// parseSwitch handles "sw ah": a phase letter then h (high), l (low) or
// z (both off).
func parseSwitch(args []string) (command.Command, error) {
	if len(args) == 0 {
		return command.Command{}, expected(usageSw)
	}
	tok := strings.ToLower(args[0])
	if len(tok) != 2 {
		return command.Command{}, unknown(tok)
	}
	p, err := phase.ParsePhase(tok[:1])
	if err != nil {
		return command.Command{}, unknown(tok)
	}
	var leg phase.LegState
	switch tok[1] {
	case 'h':
		leg = phase.HighSideOn
	case 'l':
		leg = phase.LowSideOn
	case 'z':
		leg = phase.BothOff
	default:
		return command.Command{}, unknown(tok)
	}
	return command.Command{Kind: command.SetLeg, Phase: p, Leg: leg}, nil
}

func parseMode(args []string) (command.Command, error) {
	if len(args) == 0 {
		return command.Command{}, expected(usageMode)
	}
	m, err := phase.ParseMode(args[0])
	if err != nil {
		return command.Command{}, unknown(args[0])
	}
	return command.Command{Kind: command.SetMode, Mode: m}, nil
}

func parseDuty(args []string) (command.Command, error) {
	if len(args) < 2 {
		return command.Command{}, expected(usageDuty)
	}
	p, err := phase.ParsePhase(args[0])
	if err != nil {
		return command.Command{}, unknown(args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return command.Command{}, expected(usageDuty)
	}
	return command.Command{Kind: command.SetDuty, Phase: p, Percent: n}, nil
}

func parseDriver(args []string) (command.Command, error) {
	if len(args) == 0 {
		return command.Command{}, expected(usageDrv)
	}
	c := command.Command{Kind: command.Driver}
	switch args[0] {
	case "on":
		c.Driver = command.DriverOn
	case "off":
		c.Driver = command.DriverOff
	case "regs":
		c.Driver = command.DriverRegs
	case "gain":
		c.Driver = command.DriverGain
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return command.Command{}, expected("drv gain <n>")
			}
			c.Gain = n
		}
	case "reset":
		c.Driver = command.DriverReset
	default:
		return command.Command{}, unknown(args[0])
	}
	return c, nil
}

// Help lists the console verbs.
const Help = "Commands:\r\n" +
	"  " + usageSw + "\r\n" +
	"  " + usageMode + "\r\n" +
	"  " + usageDuty + "\r\n" +
	"  " + usageDrv + "\r\n" +
	"  status\r\n"
