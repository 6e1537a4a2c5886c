// Command phasebridged is the bench daemon for the BLDC phase bridge. It owns
// the bridge controller, serves the HTTP API and an optional serial console,
// and advertises itself over mDNS.
// Run with --mock to use the emulated power stage (no I2C device required).
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/openbench/phasebridge/internal/api"
	"github.com/openbench/phasebridge/internal/config"
	"github.com/openbench/phasebridge/internal/console"
	"github.com/openbench/phasebridge/internal/controller"
	"github.com/openbench/phasebridge/internal/events"
	"github.com/openbench/phasebridge/internal/feedback"
	"github.com/openbench/phasebridge/internal/gatedrv"
	"github.com/openbench/phasebridge/internal/hall"
	"github.com/openbench/phasebridge/internal/hardware"
	"github.com/openbench/phasebridge/internal/loop"
	"github.com/openbench/phasebridge/internal/pwm"
	"github.com/openbench/phasebridge/internal/status"
	"github.com/openbench/phasebridge/internal/zeroconf"
)

var version = "dev"

func main() {
	var (
		mock     = flag.Bool("mock", false, "use the emulated power stage (no I2C device required)")
		addr     = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir   = flag.String("config-dir", "", "config directory (default: ~/.config/phasebridge)")
		ttyPath  = flag.String("console", "", "serial device for the operator console, or - for stdin")
		baud     = flag.Int("baud", console.DefaultBaud, "console baud rate")
		i2cBus   = flag.String("i2c-bus", hardware.DefaultI2CBus, "I2C adapter of the register link")
		i2cAddr  = flag.Uint("i2c-addr", uint(hardware.DefaultI2CAddr), "I2C slave address of the register link")
		resetMCU = flag.Bool("reset-mcu", false, "pulse the MCU reset line before bringing up the link")
		mdns     = flag.Bool("mdns", true, "advertise the API over mDNS")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "phasebridge")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Register bus
	var bus hardware.Bus
	if *mock {
		slog.Info("using emulated power stage")
		bus = hardware.NewMock()
	} else {
		slog.Info("using I2C register link", "bus", *i2cBus, "addr", *i2cAddr)
		link := hardware.NewI2C(*i2cBus, uint16(*i2cAddr), *resetMCU)
		defer link.Close()
		bus = link
	}
	if err := bus.Init(ctx); err != nil {
		slog.Error("hardware initialization failed", "err", err)
		os.Exit(1)
	}

	gpio := hardware.NewGPIO(bus)
	if err := gpio.EnableClocks(ctx); err != nil {
		slog.Error("gpio clock enable failed", "err", err)
		os.Exit(1)
	}
	adc := hardware.NewADC(bus)

	// Config store
	store := config.NewJSONStore(*cfgDir)
	cfg, err := store.Load()
	if err != nil {
		slog.Error("config load failed", "path", store.Path(), "err", err)
		os.Exit(1)
	}

	// Bridge controller, Manual mode with every leg off
	pwmCfg := pwm.DefaultConfig()
	ctrl, err := controller.New(ctx, gpio, hardware.NewTimer(bus), pwmCfg)
	if err != nil {
		slog.Error("controller initialization failed", "err", err)
		os.Exit(1)
	}
	slog.Info("pwm timing",
		"core_clock", pwmCfg.CoreClock,
		"frequency", pwmCfg.Frequency,
		"dead_time", pwm.DeadTimeDuration(pwmCfg.CoreClock),
	)

	// Gate driver lines
	drv, err := gatedrv.New(ctx, gpio)
	if err != nil {
		slog.Error("gate driver initialization failed", "err", err)
		os.Exit(1)
	}
	if cfg.DriverOnBoot {
		if err := drv.SetEnabled(ctx, true); err != nil {
			slog.Warn("gate driver enable failed", "err", err)
		}
	}

	// Feedback and halls
	if err := feedback.Setup(ctx, gpio, adc); err != nil {
		slog.Error("feedback setup failed", "err", err)
		os.Exit(1)
	}
	halls := hall.NewDecoder(gpio)
	if err := halls.Setup(ctx); err != nil {
		slog.Error("hall setup failed", "err", err)
		os.Exit(1)
	}
	rep := status.NewReporter(feedback.NewSampler(adc, int32(cfg.SenseGain)), halls, drv)

	// Event bus and control loop
	evbus := events.NewBus()
	lp := loop.New(ctrl, drv, rep, evbus, *cfg)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := lp.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("control loop stopped", "err", err)
		}
	}()

	if err := config.Watch(ctx, store, lp.Reconfigure); err != nil {
		slog.Warn("config watch unavailable", "err", err)
	}

	// Operator console
	if *ttyPath != "" {
		var rw io.ReadWriteCloser
		if *ttyPath == "-" {
			rw = stdio{}
		} else {
			port, err := console.OpenSerial(*ttyPath, *baud)
			if err != nil {
				slog.Error("console unavailable", "err", err)
				os.Exit(1)
			}
			rw = port
		}
		defer rw.Close()

		sess := console.NewSession(rw, rw, lp)
		screen := evbus.Subscribe("console")
		go sess.Screen(ctx, screen, lp.Screen)
		go func() {
			if err := sess.Serve(ctx); err != nil && err != context.Canceled {
				slog.Warn("console stopped", "err", err)
			}
		}()
		slog.Info("console attached", "device", *ttyPath)
	}

	// Zeroconf mDNS registration
	if *mdns {
		hostname, _ := os.Hostname()
		port := 80
		if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		board := "i2c"
		if *mock {
			board = "mock"
		}
		zc := zeroconf.New(hostname, port, "version="+version, "board="+board)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(lp, store, evbus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("phasebridge listening", "addr", *addr, "mock", *mock, "config", *cfgDir, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()

	// The loop returns the bridge to Manual with every leg off before exiting.
	select {
	case <-loopDone:
	case <-shutCtx.Done():
		slog.Warn("control loop did not stop in time")
	}

	if err := drv.SetEnabled(shutCtx, false); err != nil {
		slog.Warn("gate driver disable failed", "err", err)
	}

	// Flush pending config writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// stdio is the process terminal as a console stream.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
