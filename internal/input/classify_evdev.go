package input

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event types and key codes from linux/input-event-codes.h, limited to
// what classification needs.
const (
	evKey = 0x01
	evAbs = 0x03

	btnToolPen    = 0x140
	btnToolRubber = 0x141
	btnToolFinger = 0x145
	btnTouch      = 0x14a
	btnStylus     = 0x14b
	btn0          = 0x100 // pad buttons start here
)

const iocRead = 2

// eviocgBit builds the EVIOCGBIT(ev, len) ioctl request.
func eviocgBit(ev uint, size int) uint {
	return iocRead<<30 | uint('E')<<8 | uint(0x20+ev) | uint(size)<<16
}

func ioctlBits(fd uintptr, ev uint, bits []byte) bool {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd,
		uintptr(eviocgBit(ev, len(bits))),
		uintptr(unsafe.Pointer(&bits[0])))
	return errno == 0
}

func bitSet(bits []byte, bit int) bool {
	return bits[bit/8]&(1<<(uint(bit)%8)) != 0
}

// classifyByCapabilities opens the event node and inspects its evdev
// key/abs bits. Returns false when the node cannot be opened or the
// bits are inconclusive.
func classifyByCapabilities(node string) (DeviceType, bool) {
	f, err := os.OpenFile(node, os.O_RDONLY, 0)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	keyBits := make([]byte, 96) // KEY_MAX/8 + 1
	if !ioctlBits(f.Fd(), evKey, keyBits) {
		return 0, false
	}
	absBits := make([]byte, 8)
	hasAbs := ioctlBits(f.Fd(), evAbs, absBits) && absBits[0] != 0

	switch {
	case bitSet(keyBits, btnToolRubber):
		return DeviceTypeEraser, true
	case bitSet(keyBits, btnToolPen) || bitSet(keyBits, btnStylus):
		return DeviceTypePen, true
	case bitSet(keyBits, btnToolFinger) && hasAbs:
		return DeviceTypeTouchscreen, true
	case bitSet(keyBits, btnTouch) && hasAbs:
		return DeviceTypeTouchscreen, true
	case bitSet(keyBits, btn0) && !hasAbs:
		return DeviceTypePad, true
	}

	return 0, false
}
