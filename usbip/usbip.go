// Package usbip implements the subset of the USB/IP wire protocol needed to
// export a single emulated device: the devlist/import management ops and the
// SUBMIT/UNLINK URB stream. All multi-byte fields are big-endian.
package usbip

import "encoding/binary"

const (
	Version = 0x0111

	OpReqDevlist = 0x8005
	OpRepDevlist = 0x0005
	OpReqImport  = 0x8003
	OpRepImport  = 0x0003

	CmdSubmit = 0x00000001
	CmdUnlink = 0x00000002
	RetSubmit = 0x00000003
	RetUnlink = 0x00000004

	DirOut = 0
	DirIn  = 1

	// MgmtHeaderLen is the fixed management-op header size; URBHeaderLen the
	// fixed URB header size (0x30).
	MgmtHeaderLen = 8
	URBHeaderLen  = 48

	// BusIDLen is the fixed busid field size in import requests.
	BusIDLen = 32

	// StatusConnReset (-ECONNRESET) acknowledges an unlink.
	StatusConnReset = -104
)

// DeviceInfo describes the exported device for devlist and import replies.
type DeviceInfo struct {
	Path      string
	BusID     string
	BusNum    uint32
	DevNum    uint32
	Speed     uint32
	VendorID  uint16
	ProductID uint16
	BcdDevice uint16
	Class     uint8
	SubClass  uint8
	Protocol  uint8

	// Interface class triples, one per interface.
	Interfaces [][3]uint8
}

// DevID is the devid field derived from bus and device number.
func (d *DeviceInfo) DevID() uint32 { return d.BusNum<<16 | d.DevNum }

// AppendMgmtHeader appends the 8-byte management header.
func AppendMgmtHeader(b []byte, code uint16, status uint32) []byte {
	b = be16(b, Version)
	b = be16(b, code)
	return be32(b, status)
}

// AppendExported appends the 312-byte exported-device block. Interface
// triples (4 bytes each, zero padded) are appended only for devlist replies;
// import replies end at bNumInterfaces.
func (d *DeviceInfo) AppendExported(b []byte, withInterfaces bool) []byte {
	b = appendFixed(b, d.Path, 256)
	b = appendFixed(b, d.BusID, BusIDLen)
	b = be32(b, d.BusNum)
	b = be32(b, d.DevNum)
	b = be32(b, d.Speed)
	b = be16(b, d.VendorID)
	b = be16(b, d.ProductID)
	b = be16(b, d.BcdDevice)
	b = append(b, d.Class, d.SubClass, d.Protocol,
		1, // bConfigurationValue
		1, // bNumConfigurations
		uint8(len(d.Interfaces)))
	if withInterfaces {
		for _, it := range d.Interfaces {
			b = append(b, it[0], it[1], it[2], 0)
		}
	}
	return b
}

// Submit is a decoded CMD_SUBMIT header.
type Submit struct {
	Seq         uint32
	DevID       uint32
	Dir         uint32
	Endpoint    uint32
	TransferLen uint32
	Setup       [8]byte
}

// Command extracts the URB command code from a 48-byte header.
func Command(h []byte) uint32 { return binary.BigEndian.Uint32(h[0:4]) }

// Seq extracts the sequence number from a 48-byte header.
func Seq(h []byte) uint32 { return binary.BigEndian.Uint32(h[4:8]) }

// ParseSubmit decodes the SUBMIT fields of a 48-byte URB header.
func ParseSubmit(h []byte) Submit {
	var s Submit
	s.Seq = binary.BigEndian.Uint32(h[4:8])
	s.DevID = binary.BigEndian.Uint32(h[8:12])
	s.Dir = binary.BigEndian.Uint32(h[12:16])
	s.Endpoint = binary.BigEndian.Uint32(h[16:20])
	s.TransferLen = binary.BigEndian.Uint32(h[24:28])
	copy(s.Setup[:], h[40:48])
	return s
}

// UnlinkSeq extracts the victim sequence number from a CMD_UNLINK header.
func UnlinkSeq(h []byte) uint32 { return binary.BigEndian.Uint32(h[20:24]) }

// AppendRetSubmit appends a RET_SUBMIT header plus payload for seq.
func AppendRetSubmit(b []byte, seq uint32, status int32, payload []byte) []byte {
	b = be32(b, RetSubmit)
	b = be32(b, seq)
	b = be32(b, 0) // devid
	b = be32(b, 0) // direction
	b = be32(b, 0) // ep
	b = be32(b, uint32(status))
	b = be32(b, uint32(len(payload)))
	b = be32(b, 0) // start_frame
	b = be32(b, 0) // number_of_packets
	b = be32(b, 0) // error_count
	b = append(b, make([]byte, 8)...)
	return append(b, payload...)
}

// AppendRetUnlink appends a RET_UNLINK header for seq.
func AppendRetUnlink(b []byte, seq uint32, status int32) []byte {
	b = be32(b, RetUnlink)
	b = be32(b, seq)
	b = be32(b, 0)
	b = be32(b, 0)
	b = be32(b, 0)
	b = be32(b, uint32(status))
	return append(b, make([]byte, 24)...)
}

func be16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func be32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendFixed(b []byte, s string, n int) []byte {
	if len(s) > n {
		s = s[:n]
	}
	b = append(b, s...)
	return append(b, make([]byte, n-len(s))...)
}
