package types

// ReportSize is the length of the feature report exchanged with the host,
// report id included.
const ReportSize = 8

// Report is one feature report: set by the host, echoed back on get.
type Report [ReportSize]byte

// Byte offsets within a Report.
const (
	OffReportID   = 0
	OffCommand    = 1
	OffRed        = 2
	OffGreen      = 3
	OffBlue       = 4
	OffDurationHi = 5
	OffDurationLo = 6
	OffLED        = 7
)

// DefaultReportID is the only report id the device acts on.
const DefaultReportID = 0x01

// Command codes (ASCII, byte 1).
const (
	CmdFade      byte = 'c'
	CmdFadeAlias byte = 'n' // same as CmdFade
	CmdArmReset  byte = '!'
	CmdVersion   byte = 'v'
	CmdReadLED   byte = 'r'
)

// BroadcastLED addresses every LED.
const BroadcastLED = 0

// Color returns the target colour carried in bytes 2..4 (host RGB order).
func (r *Report) Color() GRB { return RGB(r[OffRed], r[OffGreen], r[OffBlue]) }

// Duration returns the big-endian tick count in bytes 5..6.
func (r *Report) Duration() uint16 {
	return uint16(r[OffDurationHi])<<8 | uint16(r[OffDurationLo])
}

// FadeReport builds a fade command for led with the given host-order colour.
func FadeReport(led uint8, c GRB, ticks uint16) Report {
	return Report{
		OffReportID:   DefaultReportID,
		OffCommand:    CmdFade,
		OffRed:        c.R,
		OffGreen:      c.G,
		OffBlue:       c.B,
		OffDurationHi: byte(ticks >> 8),
		OffDurationLo: byte(ticks),
		OffLED:        led,
	}
}

// CommandReport builds a report carrying only a command byte and an LED index.
func CommandReport(cmd byte, led uint8) Report {
	return Report{OffReportID: DefaultReportID, OffCommand: cmd, OffLED: led}
}

// USB identity of the emulated device. The descriptor tables themselves are
// owned by the USB stack; transports that enumerate use these values.
const (
	USBVendorID      = 0x27B8
	USBProductID     = 0x01ED
	USBDeviceRelease = 0x0002
	USBProduct       = "blink(1) mk2"
	USBMaxPowerMA    = 120
)

// HIDReportDescriptor declares one 8-byte vendor feature report, id 1.
var HIDReportDescriptor = []byte{
	0x06, 0x00, 0xff, // USAGE_PAGE (Vendor Defined)
	0x09, 0x01, // USAGE (Vendor Usage 1)
	0xa1, 0x01, // COLLECTION (Application)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x26, 0xff, 0x00, //   LOGICAL_MAXIMUM (255)
	0x75, 0x08, //   REPORT_SIZE (8)
	0x85, DefaultReportID, //   REPORT_ID (1)
	0x95, ReportSize, //   REPORT_COUNT (8)
	0x09, 0x00, //   USAGE (Undefined)
	0xb2, 0x02, 0x01, //   FEATURE (Data,Var,Abs,Buf)
	0xc0, // END_COLLECTION
}
