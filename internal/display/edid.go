package display

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// edidInfo is the identity subset of an EDID base block that the
// matching heuristics care about.
type edidInfo struct {
	vendor   string // PNP ID, e.g. "WAC"
	product  string // monitor name descriptor, e.g. "Cintiq 13HD"
	serial   string
	widthMm  int
	heightMm int
}

var edidHeader = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// parseEDID decodes the 128-byte EDID base block. Extension blocks are
// ignored; everything needed lives in the base block.
func parseEDID(blob []byte) (edidInfo, error) {
	var info edidInfo

	if len(blob) < 128 {
		return info, fmt.Errorf("EDID too short: %d bytes", len(blob))
	}
	for i, b := range edidHeader {
		if blob[i] != b {
			return info, fmt.Errorf("invalid EDID header")
		}
	}

	// Manufacturer ID: three 5-bit letters packed big-endian, each
	// 1..26 for A..Z.
	id := binary.BigEndian.Uint16(blob[8:10])
	var vendor [3]byte
	for i, code := range []byte{byte(id >> 10 & 0x1F), byte(id >> 5 & 0x1F), byte(id & 0x1F)} {
		if code < 1 || code > 26 {
			return info, fmt.Errorf("invalid manufacturer ID letter code %d", code)
		}
		vendor[i] = 'A' - 1 + code
	}
	info.vendor = string(vendor[:])

	// Maximum image size, in centimeters.
	info.widthMm = int(blob[21]) * 10
	info.heightMm = int(blob[22]) * 10

	// Display descriptors: monitor name (0xFC) and serial (0xFF).
	for _, off := range []int{54, 72, 90, 108} {
		if blob[off] != 0 || blob[off+1] != 0 || blob[off+2] != 0 {
			continue // detailed timing, not a descriptor
		}
		text := strings.TrimSpace(strings.TrimRight(string(blob[off+5:off+18]), "\n \x00"))
		switch blob[off+3] {
		case 0xFC:
			info.product = text
		case 0xFF:
			info.serial = text
		}
	}

	if info.product == "" {
		info.product = fmt.Sprintf("0x%04X", binary.LittleEndian.Uint16(blob[10:12]))
	}
	if info.serial == "" {
		if n := binary.LittleEndian.Uint32(blob[12:16]); n != 0 {
			info.serial = fmt.Sprintf("%d", n)
		}
	}

	return info, nil
}
