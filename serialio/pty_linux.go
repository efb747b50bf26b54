package serialio

import (
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// OpenPTY opens a fresh pseudoterminal pair and wraps both ends as Links.
// It exists so tests can simulate a tablet (writing canned probe replies
// on the master side) while the Identifier/Core talk to the slave side as
// if it were a real RS-232 device, adapted from the teacher goserial
// package's pty_linux.go.
func OpenPTY() (master, slave *Link, err error) {
	mfd, err := syscall.Open("/dev/ptmx", syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, nil, &TransportError{Op: "open /dev/ptmx", Err: err}
	}
	var zero int32
	if err := ioctl.Ioctl(uintptr(mfd), tiocsptlck, uintptr(unsafe.Pointer(&zero))); err != nil {
		syscall.Close(mfd)
		return nil, nil, wrapErr("unlock pty", err)
	}
	var n uint32
	if err := ioctl.Ioctl(uintptr(mfd), tiocgptn, uintptr(unsafe.Pointer(&n))); err != nil {
		syscall.Close(mfd)
		return nil, nil, wrapErr("get pty number", err)
	}
	// TIOCGPTPEER returns the new fd as the syscall result rather than
	// through an output pointer, so it is issued directly rather than
	// through the ioctl.Ioctl helper (which only reports success/failure).
	r1, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(mfd), tiocgptpeer, uintptr(syscall.O_RDWR|syscall.O_NOCTTY))
	if errno != 0 {
		syscall.Close(mfd)
		return nil, nil, wrapErr("get pty peer", errno)
	}
	sfd := int(r1)

	m := &Link{path: "/dev/ptmx", fd: mfd}
	s := &Link{path: ptsName(n), fd: sfd}
	if err := s.makeRawAndAssert(); err != nil {
		m.Close()
		s.Close()
		return nil, nil, err
	}
	return m, s, nil
}

func ptsName(n uint32) string {
	return "/dev/pts/" + itoa(n)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
