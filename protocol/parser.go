package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// Parse errors. Both are non-fatal: the caller acknowledges them over the
// serial channel and the next line is parsed independently.
var (
	// ErrFormat means the line did not contain exactly seven decimal integers.
	ErrFormat = errors.New("format error")
	// ErrProtocol means the header or checksum field did not match.
	ErrProtocol = errors.New("protocol error")
)

// Acknowledgement lines written back over the serial transport.
const (
	AckOK       = "ok\n"
	AckProtocol = "protocol error\n"
	AckFormat   = "format error\n"
)

// Ack maps a Parse result to its acknowledgement line.
func Ack(err error) string {
	switch {
	case err == nil:
		return AckOK
	case errors.Is(err, ErrProtocol):
		return AckProtocol
	default:
		return AckFormat
	}
}

// Parse decodes one command line. Validation order: arity/lexical check
// (ErrFormat), header check, checksum check (both ErrProtocol). The checksum
// is verified against the full parsed integers; only on success are the
// fields narrowed to 8 bits. Out-of-range literals wrap silently on that
// narrowing, which is intentional wire behavior and not corrected here.
func Parse(line []byte) (MotionCommand, error) {
	fields := strings.Fields(string(line))
	if len(fields) != 7 {
		return MotionCommand{}, ErrFormat
	}
	var v [7]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return MotionCommand{}, ErrFormat
		}
		v[i] = n
	}
	if v[0] != Header {
		return MotionCommand{}, ErrProtocol
	}
	if Checksum(v[1], v[2], v[3], v[4], v[5]) != v[6] {
		return MotionCommand{}, ErrProtocol
	}
	return MotionCommand{
		Buttons: uint8(v[1]),
		DX:      int8(v[2]),
		DY:      int8(v[3]),
		Wheel:   int8(v[4]),
		Pan:     int8(v[5]),
	}, nil
}
