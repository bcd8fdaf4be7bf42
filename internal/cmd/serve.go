package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denisbrodbeck/machineid"

	"github.com/GeorgeZeng997/pico-mouse/gadget"
	"github.com/GeorgeZeng997/pico-mouse/input"
	"github.com/GeorgeZeng997/pico-mouse/internal/log"
	"github.com/GeorgeZeng997/pico-mouse/internal/server/usb"
	"github.com/GeorgeZeng997/pico-mouse/serial"
	"github.com/GeorgeZeng997/pico-mouse/telemetry"
)

// SerialConfig selects the command channel endpoint. A device path takes
// priority over the TCP listener.
type SerialConfig struct {
	Addr   string `help:"Command channel TCP listen address" default:":3250" env:"PICOMOUSE_SERIAL_ADDR"`
	Device string `help:"Serial device path for the command channel (overrides the TCP listener)" env:"PICOMOUSE_SERIAL_DEVICE"`
	Baud   int    `help:"Serial device baud rate" default:"115200" env:"PICOMOUSE_SERIAL_BAUD"`
}

// Serve runs the gadget daemon: USB/IP export, command channel, joystick and
// the arbitration loop.
type Serve struct {
	Usb      usb.ServerConfig `embed:"" prefix:"usb."`
	Serial   SerialConfig     `embed:"" prefix:"serial."`
	Joystick int              `help:"Joystick device index (/dev/input/jsN)" default:"0" env:"PICOMOUSE_JOYSTICK"`
	Tick     time.Duration    `help:"Control loop tick interval" default:"1ms" env:"PICOMOUSE_TICK"`
	Broker   string           `help:"MQTT broker URL for telemetry (disabled when empty)" env:"PICOMOUSE_BROKER"`
}

// Run is called by kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Start(ctx, logger, rawLogger)
}

// Start brings up all collaborators and drives the control loop until ctx is
// done.
func (s *Serve) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	usbSrv := usb.New(s.Usb, usb.MouseDescriptor(deviceSerial(logger)), logger, rawLogger)
	usbErrCh := make(chan error, 1)
	go func() {
		usbErrCh <- usbSrv.ListenAndServe()
	}()
	select {
	case err := <-usbErrCh:
		return err
	case <-usbSrv.Listening():
	}
	defer func() { _ = usbSrv.Close() }()

	var port serial.Port
	var err error
	if s.Serial.Device != "" {
		port, err = serial.OpenTTY(s.Serial.Device, s.Serial.Baud)
		logger.Info("command channel on serial device", "device", s.Serial.Device, "baud", s.Serial.Baud)
	} else {
		port, err = serial.ListenTCP(s.Serial.Addr, logger)
	}
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	var source input.Source
	if js, jerr := input.OpenJoystick(s.Joystick); jerr != nil {
		logger.Warn("joystick unavailable, axes pinned to center", "index", s.Joystick, "error", jerr)
		source = input.Centered()
	} else {
		logger.Info("joystick opened", "index", s.Joystick, "name", js.Name())
		defer func() { _ = js.Close() }()
		source = js
	}

	var events gadget.Events = gadget.NopEvents{}
	var pub *telemetry.Publisher
	if s.Broker != "" {
		pub, err = telemetry.Connect(s.Broker, logger)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		events = pub
	}

	blinker := &gadget.Blinker{Sink: gadget.LogStatus(logger), Attached: usbSrv.Attached}
	go blinker.Run(ctx)
	if pub != nil {
		go watchAttach(ctx, usbSrv.Attached, pub)
	}

	engine := gadget.New(gadget.Config{
		Port:   port,
		Source: source,
		HID:    usbSrv,
		Events: events,
		Logger: logger,
	})
	logger.Info("gadget running", "tick", s.Tick)
	if err := engine.Run(ctx, s.Tick); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// deviceSerial derives a stable USB serial-number string from the machine
// identity, falling back to a fixed placeholder.
func deviceSerial(logger *slog.Logger) string {
	id, err := machineid.ProtectedID("picomouse")
	if err != nil {
		logger.Warn("machine id unavailable, using placeholder serial", "error", err)
		return "0000000000000000"
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}

// watchAttach mirrors attach-state transitions into telemetry.
func watchAttach(ctx context.Context, attached func() bool, pub *telemetry.Publisher) {
	last := attached()
	pub.Attached(last)
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if cur := attached(); cur != last {
				last = cur
				pub.Attached(cur)
			}
		}
	}
}
