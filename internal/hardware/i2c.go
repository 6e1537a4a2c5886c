//go:build linux

package hardware

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl, combined write+read with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec = 2000

	// Register link opcodes understood by the power stage MCU's I2C slave.
	opRead  = 'R'
	opWrite = 'W'

	// DBGMCU_IDCODE; DEV_ID in bits [11:0].
	regIDCode Addr   = 0xE0042000
	devIDF40x uint32 = 0x413
	devIDMask uint32 = 0xFFF
)

// Defaults for the register link.
const (
	DefaultI2CBus         = "/dev/i2c-1"
	DefaultI2CAddr uint16 = 0x42
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CLink is the real register Bus. The power stage MCU runs a small
// peek/poke responder on its I2C slave port; every register access is one
// I2C_RDWR transaction.
type I2CLink struct {
	mu      sync.Mutex
	path    string
	addr    uint16
	fd      int
	reset   bool
	limiter *rate.Limiter
}

// NewI2C creates a register link on the given I2C adapter and slave address.
// If resetMCU is set, Init pulses the MCU reset line before probing.
func NewI2C(path string, addr uint16, resetMCU bool) *I2CLink {
	if path == "" {
		path = DefaultI2CBus
	}
	if addr == 0 {
		addr = DefaultI2CAddr
	}
	return &I2CLink{
		path:    path,
		addr:    addr,
		fd:      -1,
		reset:   resetMCU,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 32),
	}
}

func (l *I2CLink) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reset {
		if err := resetMCU(false); err != nil {
			slog.Warn("i2c: MCU reset failed (continuing with running firmware)", "err", err)
		}
		// Responder firmware needs a moment after reset before it ACKs.
		time.Sleep(50 * time.Millisecond)
	}

	fd, err := unix.Open(l.path, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("i2c: open %s: %w", l.path, err)
	}

	id, err := l.read(fd, regIDCode)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("i2c: no register responder at 0x%02x on %s: %w", l.addr, l.path, err)
	}
	if id&devIDMask != devIDF40x {
		slog.Warn("i2c: unexpected MCU device id", "idcode", fmt.Sprintf("0x%08x", id))
	}
	slog.Info("i2c: register link up", "bus", l.path, "addr", fmt.Sprintf("0x%02x", l.addr),
		"idcode", fmt.Sprintf("0x%08x", id))
	l.fd = fd
	return nil
}

func (l *I2CLink) Read(ctx context.Context, addr Addr) (uint32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd < 0 {
		return 0, fmt.Errorf("i2c: link not initialized")
	}
	return l.read(l.fd, addr)
}

func (l *I2CLink) Write(ctx context.Context, addr Addr, val uint32) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd < 0 {
		return fmt.Errorf("i2c: link not initialized")
	}
	return l.write(l.fd, addr, val)
}

func (l *I2CLink) IsReal() bool { return true }

// Close releases the I2C file descriptor.
func (l *I2CLink) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd >= 0 {
		unix.Close(l.fd)
		l.fd = -1
	}
}

// read sends [R, addr LE] and reads the 4-byte little-endian value back after
// a REPEATED START.
func (l *I2CLink) read(fd int, addr Addr) (uint32, error) {
	var wbuf [5]byte
	wbuf[0] = opRead
	binary.LittleEndian.PutUint32(wbuf[1:], uint32(addr))
	var rbuf [4]byte

	msgs := [2]i2cMsg{
		{addr: l.addr, flags: 0, length: uint16(len(wbuf)), buf: uintptr(unsafe.Pointer(&wbuf[0]))},
		{addr: l.addr, flags: i2cMsgRD, length: uint16(len(rbuf)), buf: uintptr(unsafe.Pointer(&rbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 2}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return 0, fmt.Errorf("i2c: I2C_RDWR read 0x%08x: %w", uint32(addr), errno)
	}
	return binary.LittleEndian.Uint32(rbuf[:]), nil
}

// write sends [W, addr LE, val LE] in a single message.
func (l *I2CLink) write(fd int, addr Addr, val uint32) error {
	var wbuf [9]byte
	wbuf[0] = opWrite
	binary.LittleEndian.PutUint32(wbuf[1:], uint32(addr))
	binary.LittleEndian.PutUint32(wbuf[5:], val)
	msgs := [1]i2cMsg{
		{addr: l.addr, flags: 0, length: uint16(len(wbuf)), buf: uintptr(unsafe.Pointer(&wbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 1}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return fmt.Errorf("i2c: I2C_RDWR write 0x%08x=0x%08x: %w", uint32(addr), val, errno)
	}
	return nil
}

var _ Bus = (*I2CLink)(nil)
