package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/openbench/phasebridge/internal/command"
	"github.com/openbench/phasebridge/internal/models"
	"github.com/openbench/phasebridge/internal/status"
)

// Submitter runs a command on the control loop.
type Submitter interface {
	Submit(ctx context.Context, cmd command.Command) (models.BridgeState, *models.AppError)
}

// Session serves one console connection. Replies and status screens share
// the writer and never interleave.
type Session struct {
	r   io.Reader
	sub Submitter

	mu sync.Mutex
	w  io.Writer
}

// NewSession creates a session reading commands from r and writing to w.
func NewSession(r io.Reader, w io.Writer, sub Submitter) *Session {
	return &Session{r: r, w: w, sub: sub}
}

// Serve reads lines until the reader is exhausted or ctx is done. It returns
// nil on a clean EOF. When ctx ends first Serve returns at once; the reader
// goroutine exits when the underlying stream is closed.
func (s *Session) Serve(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case line := <-lines:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.handle(ctx, strings.TrimSpace(line))
		}
	}
}

func (s *Session) handle(ctx context.Context, line string) {
	if !utf8.ValidString(line) {
		s.write(fmt.Sprintf("%sNon utf-8 command%s\r\n", status.Yellow, status.Default))
		return
	}
	cmd, err := Parse(line)
	var pe *ParseError
	switch {
	case errors.Is(err, ErrHelp):
		s.write(Help)
		return
	case errors.As(err, &pe):
		s.reply(line, status.Yellow, pe.Reply)
		return
	case err != nil:
		s.reply(line, status.Yellow, err.Error())
		return
	}

	_, appErr := s.sub.Submit(ctx, cmd)
	if appErr == nil {
		s.reply(line, status.Green, "Ok")
		return
	}
	slog.Debug("console: command failed", "line", line, "code", appErr.Code)
	switch appErr.Code {
	case models.CodeNoChange:
		s.reply(line, status.Green, "Ok ("+appErr.Message+")")
	case models.CodeUnsupported:
		s.reply(line, status.Yellow, "Not supported")
	default:
		s.reply(line, status.Yellow, appErr.Message)
	}
}

func (s *Session) reply(line, color, msg string) {
	s.write(fmt.Sprintf("%s: %s%s%s\r\n", line, color, msg, status.Default))
}

func (s *Session) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text); err != nil {
		slog.Warn("console: write failed", "err", err)
	}
}

// Screen renders every status from ch while enabled reports true. It returns
// when ch is closed or ctx is done.
func (s *Session) Screen(ctx context.Context, ch <-chan models.Status, enabled func() bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			if !enabled() {
				continue
			}
			s.mu.Lock()
			err := status.Render(s.w, st)
			s.mu.Unlock()
			if err != nil {
				slog.Warn("console: render failed", "err", err)
			}
		}
	}
}
