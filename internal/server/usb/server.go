// Package usb exports the virtual mouse over the USB/IP protocol and adapts
// host interrupt polls to the engine's per-tick reports. One device on one
// bus; a Linux host attaches it with `usbip attach -r <host> -b <busid>`.
package usb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/GeorgeZeng997/pico-mouse/hid"
	"github.com/GeorgeZeng997/pico-mouse/internal/log"
	"github.com/GeorgeZeng997/pico-mouse/usb"
	"github.com/GeorgeZeng997/pico-mouse/usbip"
)

// Standard request codes and setup bmRequestType values handled on EP0.
const (
	reqGetStatus        = 0x00
	reqSetAddress       = 0x05
	reqGetDescriptor    = 0x06
	reqGetConfiguration = 0x08
	reqSetConfiguration = 0x09
	reqSetIdle          = 0x0a // HID class

	rtStandardToDevice    = 0x00
	rtStandardFromDevice  = 0x80
	rtStandardToInterface = 0x81
	rtClassToInterface    = 0x21
)

// ErrNotAttached is returned by SendReport while no host is attached.
var ErrNotAttached = errors.New("no usbip client attached")

// Server is the USB/IP export for the mouse gadget. It implements
// hid.Transport: reports sent between host polls accumulate in a slot that
// the next interrupt IN drains, with deltas clamped to the int8 wire range.
// The slot mutex is the single serialization point between the control loop
// and the transport goroutines.
type Server struct {
	cfg    ServerConfig
	desc   *usb.Descriptor
	info   usbip.DeviceInfo
	logger *slog.Logger
	raw    log.RawLogger

	ln        net.Listener
	listening chan struct{}
	once      sync.Once

	mu       sync.Mutex
	attached bool
	buttons  uint8
	dx, dy   int
	wheel    int
	pan      int
}

// New builds a server exporting desc under cfg.BusID.
func New(cfg ServerConfig, desc *usb.Descriptor, logger *slog.Logger, raw log.RawLogger) *Server {
	return &Server{
		cfg:    cfg,
		desc:   desc,
		logger: logger,
		raw:    raw,
		info: usbip.DeviceInfo{
			Path:      "/sys/devices/platform/vhci_hcd.0/usb1/" + cfg.BusID,
			BusID:     cfg.BusID,
			BusNum:    1,
			DevNum:    2,
			Speed:     desc.Device.Speed,
			VendorID:  desc.Device.VendorID,
			ProductID: desc.Device.ProductID,
			BcdDevice: desc.Device.BcdDevice,
			Interfaces: [][3]uint8{
				{desc.Interface.Class, desc.Interface.SubClass, desc.Interface.Protocol},
			},
		},
		listening: make(chan struct{}),
	}
}

// ListenAndServe accepts USB/IP clients until the listener is closed.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.once.Do(func() { close(s.listening) })
	s.logger.Info("usbip server listening", "addr", ln.Addr().String(), "busid", s.cfg.BusID)
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("usbip server stopped")
				return nil
			}
			s.logger.Error("usbip accept", "error", err)
			continue
		}
		go func() {
			if err := s.handleConn(c); err != nil && !isDisconnect(err) {
				s.logger.Error("usbip connection", "error", err)
			}
		}()
	}
}

// Listening is closed once the listener is bound.
func (s *Server) Listening() <-chan struct{} { return s.listening }

// Close stops the server by closing its listener.
func (s *Server) Close() error {
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// Attached reports whether a host currently imports the device.
func (s *Server) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Ready implements hid.Transport.
func (s *Server) Ready() bool { return s.Attached() }

// SendReport implements hid.Transport. Deltas accumulate until the next
// host poll; buttons are level state and take the latest value.
func (s *Server) SendReport(_ uint8, r hid.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrNotAttached
	}
	s.buttons = r.Buttons
	s.dx += int(r.DX)
	s.dy += int(r.DY)
	s.wheel += int(r.Wheel)
	s.pan += int(r.Pan)
	return nil
}

// takeReport drains the accumulated slot into one wire report.
func (s *Server) takeReport() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := hid.Report{
		Buttons: s.buttons,
		DX:      clamp8(s.dx),
		DY:      clamp8(s.dy),
		Wheel:   clamp8(s.wheel),
		Pan:     clamp8(s.pan),
	}
	s.dx, s.dy, s.wheel, s.pan = 0, 0, 0, 0
	return r.Bytes()
}

func (s *Server) setAttached(v bool) {
	s.mu.Lock()
	s.attached = v
	// A detach invalidates anything accumulated for the old host.
	if !v {
		s.buttons, s.dx, s.dy, s.wheel, s.pan = 0, 0, 0, 0, 0
	}
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) error {
	defer conn.Close()
	rw := &traceConn{Conn: conn, raw: s.raw}

	var hdr [usbip.MgmtHeaderLen]byte
	if _, err := io.ReadFull(rw, hdr[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if binary.BigEndian.Uint16(hdr[0:2]) != usbip.Version {
		return errors.New("protocol violation: URB data before OP_REQ_IMPORT")
	}

	switch code := binary.BigEndian.Uint16(hdr[2:4]); code {
	case usbip.OpReqDevlist:
		s.logger.Debug("OP_REQ_DEVLIST")
		return s.writeDevlist(rw)
	case usbip.OpReqImport:
		if err := s.handleImport(rw); err != nil {
			return err
		}
		s.setAttached(true)
		s.logger.Info("host attached", "remote", conn.RemoteAddr())
		defer func() {
			s.setAttached(false)
			s.logger.Info("host detached", "remote", conn.RemoteAddr())
		}()
		return s.serveURBs(rw)
	default:
		return fmt.Errorf("unsupported op 0x%04x", code)
	}
}

func (s *Server) writeDevlist(w io.Writer) error {
	b := usbip.AppendMgmtHeader(nil, usbip.OpRepDevlist, 0)
	b = append(b, 0, 0, 0, 1) // one device
	b = s.info.AppendExported(b, true)
	_, err := w.Write(b)
	return err
}

func (s *Server) handleImport(rw io.ReadWriter) error {
	var busid [usbip.BusIDLen]byte
	if _, err := io.ReadFull(rw, busid[:]); err != nil {
		return fmt.Errorf("read import busid: %w", err)
	}
	req := cstr(busid[:])
	if req != s.cfg.BusID {
		s.logger.Warn("import for unknown busid", "busid", req)
		b := usbip.AppendMgmtHeader(nil, usbip.OpRepImport, 1)
		_, _ = rw.Write(b)
		return fmt.Errorf("no device matches busid %q", req)
	}
	b := usbip.AppendMgmtHeader(nil, usbip.OpRepImport, 0)
	b = s.info.AppendExported(b, false)
	_, err := rw.Write(b)
	return err
}

func (s *Server) serveURBs(rw io.ReadWriter) error {
	var hdr [usbip.URBHeaderLen]byte
	for {
		if _, err := io.ReadFull(rw, hdr[:]); err != nil {
			return fmt.Errorf("read URB header: %w", err)
		}
		switch cmd := usbip.Command(hdr[:]); cmd {
		case usbip.CmdUnlink:
			s.logger.Debug("CMD_UNLINK", "seq", usbip.Seq(hdr[:]), "victim", usbip.UnlinkSeq(hdr[:]))
			out := usbip.AppendRetUnlink(nil, usbip.Seq(hdr[:]), usbip.StatusConnReset)
			if _, err := rw.Write(out); err != nil {
				return fmt.Errorf("write RET_UNLINK: %w", err)
			}
		case usbip.CmdSubmit:
			sub := usbip.ParseSubmit(hdr[:])
			var outData []byte
			if sub.Dir == usbip.DirOut && sub.TransferLen > 0 {
				outData = make([]byte, sub.TransferLen)
				if _, err := io.ReadFull(rw, outData); err != nil {
					return fmt.Errorf("read OUT payload: %w", err)
				}
			}
			payload := s.submit(sub, outData)
			out := usbip.AppendRetSubmit(nil, sub.Seq, 0, payload)
			if _, err := rw.Write(out); err != nil {
				return fmt.Errorf("write RET_SUBMIT: %w", err)
			}
		default:
			return fmt.Errorf("unsupported URB command %d", cmd)
		}
	}
}

// submit services one URB: interrupt IN polls drain the report slot,
// everything on EP0 is enumeration control traffic.
func (s *Server) submit(sub usbip.Submit, out []byte) []byte {
	if sub.Endpoint != 0 {
		if sub.Dir == usbip.DirIn && sub.Endpoint == uint32(s.desc.Endpoint.Address&0x0f) {
			return s.takeReport()
		}
		return nil
	}
	return s.control(sub.Setup)
}

// control handles the EP0 requests needed for enumeration.
func (s *Server) control(setup [8]byte) []byte {
	bm := setup[0]
	req := setup[1]
	wValue := binary.LittleEndian.Uint16(setup[2:4])
	wLength := binary.LittleEndian.Uint16(setup[6:8])

	var data []byte
	switch {
	case bm == rtStandardFromDevice && req == reqGetDescriptor:
		switch dtype, dindex := uint8(wValue>>8), uint8(wValue); dtype {
		case usb.TypeDevice:
			data = s.desc.DeviceBytes()
		case usb.TypeConfig:
			data = s.desc.ConfigBytes()
		case usb.TypeString:
			data = s.desc.StringBytes(dindex)
		}
	case bm == rtStandardToInterface && req == reqGetDescriptor:
		switch uint8(wValue >> 8) {
		case usb.TypeHID:
			data = s.desc.HIDBytes()
		case usb.TypeHIDReport:
			data = s.desc.HIDReport
		}
	case bm == rtStandardFromDevice && req == reqGetStatus:
		data = []byte{0, 0}
	case bm == rtStandardFromDevice && req == reqGetConfiguration:
		data = []byte{1}
	case bm == rtStandardToDevice && (req == reqSetAddress || req == reqSetConfiguration):
		// no data stage
	case bm == rtClassToInterface && req == reqSetIdle:
		// HID SET_IDLE, accepted silently
	}
	if len(data) > int(wLength) {
		data = data[:wLength]
	}
	return data
}

// traceConn mirrors wire traffic into the raw hex logger.
type traceConn struct {
	net.Conn
	raw log.RawLogger
}

func (t *traceConn) Read(p []byte) (int, error) {
	n, err := t.Conn.Read(p)
	if n > 0 && t.raw != nil {
		t.raw.Log(true, p[:n])
	}
	return n, err
}

func (t *traceConn) Write(p []byte) (int, error) {
	n, err := t.Conn.Write(p)
	if n > 0 && t.raw != nil {
		t.raw.Log(false, p[:n])
	}
	return n, err
}

func clamp8(v int) int8 {
	if v > 127 {
		return 127
	}
	if v < -127 {
		return -127
	}
	return int8(v)
}

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}
