// Package serialio opens, configures, and drives an RS-232 byte-oriented
// device: the SerialLink component of spec.md §4.2. It is built directly
// on the teacher goserial package's raw termios/ioctl plumbing, reused
// almost verbatim, plus a select-style non-blocking read gated by
// github.com/daedaluz/fdev/poll.
package serialio

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
	"golang.org/x/sys/unix"

	"github.com/tabletmagic/daemon/settings"
)

// Link owns exactly one open serial device. Reconfiguration while open
// is allowed and flushes pending input, per spec.md §4.2's invariant.
type Link struct {
	path   string
	fd     int
	closed atomic.Bool
}

// Open acquires exclusive access to path, puts it into raw
// non-canonical mode, and asserts DTR/RTS.
func Open(path string) (*Link, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, &TransportError{Op: "open " + path, Err: err}
	}
	if err := ioctlExclusive(fd); err != nil {
		syscall.Close(fd)
		return nil, &TransportError{Op: "exclusive-open " + path, Err: err}
	}
	l := &Link{path: path, fd: fd}
	if err := l.makeRawAndAssert(); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return l, nil
}

func ioctlExclusive(fd int) error {
	return wrapErr("tiocexcl", ioctlErr(fd, tiocexcl, 0))
}

func ioctlErr(fd int, req uintptr, arg uintptr) error {
	return ioctl.Ioctl(uintptr(fd), req, arg)
}

func (l *Link) makeRawAndAssert() error {
	t, err := getAttr(l.fd)
	if err != nil {
		return wrapErr("get attr", err)
	}
	t.MakeRaw()
	t.Cflag |= CREAD | CLOCAL
	t.setSpeed(B9600)
	if err := setAttr(l.fd, TCSANOW, t); err != nil {
		return wrapErr("set attr", err)
	}
	return enableModemLines(l.fd, TIOCM_DTR|TIOCM_RTS)
}

// Apply translates settings.Settings' baud/parity/databits/stopbits/
// handshake fields to the platform's termios ioctls and applies them
// immediately, flushing any buffered input.
func (l *Link) Apply(s *settings.Settings) error {
	if l.closed.Load() {
		return ErrClosed
	}
	t, err := getAttr(l.fd)
	if err != nil {
		return wrapErr("get attr", err)
	}

	rates := map[settings.BaudRate]CFlag{
		settings.Baud2400:  B2400,
		settings.Baud4800:  B4800,
		settings.Baud9600:  B9600,
		settings.Baud19200: B19200,
		settings.Baud38400: B38400,
	}
	t.setSpeed(rates[s.BaudRate])

	t.Cflag &^= CSIZE
	if s.DataBits == settings.DataBits8 {
		t.Cflag |= CS8
	} else {
		t.Cflag |= CS7
	}

	if s.StopBits == settings.StopBits2 {
		t.Cflag |= CSTOPB
	} else {
		t.Cflag &^= CSTOPB
	}

	t.Cflag &^= PARENB | PARODD
	switch s.Parity {
	case settings.ParityOdd:
		t.Cflag |= PARENB | PARODD
	case settings.ParityEven:
		t.Cflag |= PARENB
	}

	if s.CTS {
		t.Cflag |= CRTSCTS
	} else {
		t.Cflag &^= CRTSCTS
	}

	t.Cflag |= CREAD | CLOCAL

	if err := setAttr(l.fd, TCSANOW, t); err != nil {
		return wrapErr("set attr", err)
	}
	return wrapErr("flush", ioctlErr(l.fd, tcflsh, uintptr(unixTCIFLUSH)))
}

const unixTCIFLUSH = 0

// BytesAvailable returns the number of bytes currently queued for read,
// never blocking.
func (l *Link) BytesAvailable() (int, error) {
	if l.closed.Load() {
		return 0, ErrClosed
	}
	var n int32
	if err := ioctlErr(l.fd, unix.FIONREAD, uintptr(unsafe.Pointer(&n))); err != nil {
		return 0, wrapErr("fionread", err)
	}
	return int(n), nil
}

// Select blocks until the device is readable or usec microseconds
// elapse, returning true iff readable within the timeout.
func (l *Link) Select(usec int) (bool, error) {
	if l.closed.Load() {
		return false, ErrClosed
	}
	err := poll.WaitInput(l.fd, time.Duration(usec)*time.Microsecond)
	if err == nil {
		return true, nil
	}
	if err == context.DeadlineExceeded || os.IsTimeout(err) {
		return false, nil
	}
	return false, wrapErr("select", err)
}

// Read reads up to len(buf) bytes without blocking. Callers that need
// to wait for data should call Select first.
func (l *Link) Read(buf []byte) (int, error) {
	if l.closed.Load() {
		return 0, ErrClosed
	}
	n, err := syscall.Read(l.fd, buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, nil
		}
		return 0, &TransportError{Op: "read", Err: err}
	}
	return n, nil
}

// ReadLine is a small synchronous helper used only during the
// identification handshake: it returns when '\r' or '\n' is seen, or
// the usec budget expires.
func (l *Link) ReadLine(buf []byte, usec int) (int, error) {
	deadline := time.Now().Add(time.Duration(usec) * time.Microsecond)
	n := 0
	one := make([]byte, 1)
	for n < len(buf) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		ready, err := l.Select(int(remaining / time.Microsecond))
		if err != nil {
			return n, err
		}
		if !ready {
			break
		}
		m, err := l.Read(one)
		if err != nil {
			return n, err
		}
		if m == 0 {
			continue
		}
		if one[0] == '\r' || one[0] == '\n' {
			buf[n] = one[0]
			n++
			break
		}
		buf[n] = one[0]
		n++
	}
	return n, nil
}

// Write sends bytes synchronously. A short write is reported as
// ErrWrite.
func (l *Link) Write(data []byte) (int, error) {
	if l.closed.Load() {
		return 0, ErrClosed
	}
	n, err := syscall.Write(l.fd, data)
	if err != nil {
		return n, &TransportError{Op: "write", Err: err}
	}
	if n != len(data) {
		return n, ErrWrite
	}
	return n, nil
}

// Close releases the device. It is safe to call more than once.
func (l *Link) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return syscall.Close(l.fd)
}

// Path returns the device path this Link was opened on.
func (l *Link) Path() string { return l.path }

// Enumerate yields device paths under dir that look like RS-232
// endpoints (character devices whose name carries a serial-ish prefix),
// sorted by path; the directory's own entry order is not kept.
func Enumerate(dir string) ([]string, error) {
	if dir == "" {
		dir = "/dev"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &TransportError{Op: "enumerate " + dir, Err: err}
	}
	prefixes := []string{"ttyUSB", "ttyS", "ttyACM", "cu.", "tty.usbserial"}
	var out []string
	for _, e := range entries {
		name := e.Name()
		match := false
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		full := filepath.Join(dir, name)
		var st unix.Stat_t
		if err := unix.Stat(full, &st); err != nil {
			continue
		}
		if st.Mode&unix.S_IFMT != unix.S_IFCHR {
			continue
		}
		out = append(out, full)
	}
	sort.Strings(out)
	return out, nil
}
