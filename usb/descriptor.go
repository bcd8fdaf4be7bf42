// Package usb builds the USB descriptors for the exported mouse gadget: one
// configuration, one HID boot-mouse interface, one interrupt IN endpoint.
package usb

import "encoding/binary"

// Descriptor/encoding constants from the USB 2.0 and HID 1.11 specs.
const (
	TypeDevice    = 0x01
	TypeConfig    = 0x02
	TypeString    = 0x03
	TypeInterface = 0x04
	TypeEndpoint  = 0x05
	TypeHID       = 0x21
	TypeHIDReport = 0x22

	deviceDescLen    = 18
	configDescLen    = 9
	interfaceDescLen = 9
	endpointDescLen  = 7
	hidDescLen       = 9
)

// String descriptor indices used by the gadget.
const (
	StrManufacturer = 1
	StrProduct      = 2
	StrSerial       = 3
)

// Device holds the identity fields of the device descriptor.
type Device struct {
	BcdUSB    uint16
	VendorID  uint16
	ProductID uint16
	BcdDevice uint16
	// Speed uses the USB/IP convention: 1=low, 2=full, 3=high.
	Speed uint32
}

// Endpoint describes the single interrupt IN endpoint.
type Endpoint struct {
	Address    uint8
	Attributes uint8
	MaxPacket  uint16
	IntervalMS uint8
}

// Interface describes the HID interface triple.
type Interface struct {
	Class    uint8
	SubClass uint8
	Protocol uint8
}

// Descriptor is the full static descriptor set for the gadget.
type Descriptor struct {
	Device    Device
	Interface Interface
	Endpoint  Endpoint
	HIDReport []byte
	Strings   map[uint8]string
}

// DeviceBytes encodes the 18-byte device descriptor.
func (d *Descriptor) DeviceBytes() []byte {
	b := make([]byte, 0, deviceDescLen)
	b = append(b, deviceDescLen, TypeDevice)
	b = le16(b, d.Device.BcdUSB)
	b = append(b, 0, 0, 0) // class/subclass/protocol: defined per interface
	b = append(b, 64)      // bMaxPacketSize0
	b = le16(b, d.Device.VendorID)
	b = le16(b, d.Device.ProductID)
	b = le16(b, d.Device.BcdDevice)
	b = append(b, StrManufacturer, StrProduct, StrSerial)
	b = append(b, 1) // bNumConfigurations
	return b
}

// ConfigBytes encodes the configuration descriptor with the interface, HID
// class descriptor and endpoint appended; wTotalLength is patched last.
func (d *Descriptor) ConfigBytes() []byte {
	b := make([]byte, 0, configDescLen+interfaceDescLen+hidDescLen+endpointDescLen)
	b = append(b, configDescLen, TypeConfig, 0, 0) // wTotalLength patched below
	b = append(b, 1)    // bNumInterfaces
	b = append(b, 1)    // bConfigurationValue
	b = append(b, 0)    // iConfiguration
	b = append(b, 0x80) // bus powered
	b = append(b, 50)   // 100 mA

	b = append(b, interfaceDescLen, TypeInterface, 0, 0, 1,
		d.Interface.Class, d.Interface.SubClass, d.Interface.Protocol, 0)

	b = append(b, d.HIDBytes()...)

	b = append(b, endpointDescLen, TypeEndpoint, d.Endpoint.Address, d.Endpoint.Attributes)
	b = le16(b, d.Endpoint.MaxPacket)
	b = append(b, d.Endpoint.IntervalMS)

	binary.LittleEndian.PutUint16(b[2:4], uint16(len(b)))
	return b
}

// HIDBytes encodes the 9-byte HID class descriptor referencing the report
// descriptor.
func (d *Descriptor) HIDBytes() []byte {
	b := make([]byte, 0, hidDescLen)
	b = append(b, hidDescLen, TypeHID)
	b = le16(b, 0x0111) // bcdHID 1.11
	b = append(b, 0, 1, TypeHIDReport)
	b = le16(b, uint16(len(d.HIDReport)))
	return b
}

// StringBytes encodes a string descriptor. Index 0 is the language ID table
// (en-US); other indices come from the Strings map.
func (d *Descriptor) StringBytes(index uint8) []byte {
	if index == 0 {
		return []byte{4, TypeString, 0x09, 0x04}
	}
	s, ok := d.Strings[index]
	if !ok {
		return nil
	}
	runes := []rune(s)
	b := make([]byte, 2+len(runes)*2)
	b[0] = uint8(len(b))
	b[1] = TypeString
	for i, r := range runes {
		binary.LittleEndian.PutUint16(b[2+i*2:], uint16(r))
	}
	return b
}

func le16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}
