//go:build !rp2040 && !rp2350

package boards

// Host builds have no pins; the SPI is a capture and there is no bridge.
var Selected = Board{
	Name: "host",
	SPI:  "capture",
}
