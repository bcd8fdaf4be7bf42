package usb

import (
	"github.com/GeorgeZeng997/pico-mouse/usb"
)

// HID report descriptor for a 5-button boot-compatible mouse with vertical
// wheel and horizontal (AC Pan) wheel. Reports are 5 bytes: buttons, x, y,
// wheel, pan.
var mouseReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (Pointer)
	0xA1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (Button 1)
	0x29, 0x05, //     Usage Maximum (Button 5)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x05, //     Report Count (5)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x03, //     Report Size (3)
	0x81, 0x01, //     Input - padding
	0x05, 0x01, //     Usage Page (Generic Desktop)
	0x09, 0x30, //     Usage (X)
	0x09, 0x31, //     Usage (Y)
	0x09, 0x38, //     Usage (Wheel)
	0x15, 0x81, //     Logical Minimum (-127)
	0x25, 0x7F, //     Logical Maximum (127)
	0x75, 0x08, //     Report Size (8)
	0x95, 0x03, //     Report Count (3)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0x05, 0x0C, //     Usage Page (Consumer)
	0x0A, 0x38, 0x02, // Usage (AC Pan)
	0x15, 0x81, //     Logical Minimum (-127)
	0x25, 0x7F, //     Logical Maximum (127)
	0x75, 0x08, //     Report Size (8)
	0x95, 0x01, //     Report Count (1)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0xC0, //   End Collection
	0xC0, // End Collection
}

// MouseDescriptor builds the gadget's descriptor set. serial becomes the
// USB serial-number string.
func MouseDescriptor(serial string) *usb.Descriptor {
	return &usb.Descriptor{
		Device: usb.Device{
			BcdUSB:    0x0200,
			VendorID:  0x2E8A, // Raspberry Pi
			ProductID: 0x000A,
			BcdDevice: 0x0100,
			Speed:     2, // full speed
		},
		Interface: usb.Interface{
			Class:    0x03, // HID
			SubClass: 0x01, // boot interface
			Protocol: 0x02, // mouse
		},
		Endpoint: usb.Endpoint{
			Address:    0x81,
			Attributes: 0x03, // interrupt
			MaxPacket:  8,
			IntervalMS: 10,
		},
		HIDReport: mouseReportDescriptor,
		Strings: map[uint8]string{
			usb.StrManufacturer: "pico-mouse",
			usb.StrProduct:      "Joystick HID Mouse",
			usb.StrSerial:       serial,
		},
	}
}
