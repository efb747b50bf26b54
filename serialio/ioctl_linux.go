package serialio

import (
	ioctl "github.com/daedaluz/goioctl"
	"unsafe"
)

// ioctl request numbers, adapted from the teacher's goserial package:
// the Linux termios/TTY ioctl surface this link needs and nothing more.
var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tcgets2 = ioctl.IOR('T', 0x2A, unsafe.Sizeof(Termios2{}))
	tcsets2 = ioctl.IOW('T', 0x2B, unsafe.Sizeof(Termios2{}))

	tiocmget = uintptr(0x5415) // get modem line status
	tiocmbis = uintptr(0x5416) // set indicated modem bits
	tiocmbic = uintptr(0x5417) // clear indicated modem bits
	tiocmset = uintptr(0x5418) // set modem line status

	tcflsh = uintptr(0x540B)

	tiocexcl = uintptr(0x540C) // exclusive open

	tiocgptn    = ioctl.IOR('T', 0x30, unsafe.Sizeof(uint32(0)))
	tiocsptlck  = ioctl.IOW('T', 0x31, unsafe.Sizeof(int32(0)))
	tiocgptpeer = ioctl.IO('T', 0x41)
)
