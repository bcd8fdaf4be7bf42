package usb

// ServerConfig holds the USB/IP export settings.
type ServerConfig struct {
	Addr  string `help:"USB/IP server listen address" default:":3241" env:"PICOMOUSE_USB_ADDR"`
	BusID string `help:"Exported bus identifier" default:"1-1" env:"PICOMOUSE_USB_BUSID"`
}
