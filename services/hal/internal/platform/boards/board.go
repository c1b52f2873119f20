package boards

// Board describes the pins and controllers a build uses. It must not include
// operating parameters (bit rates come from the device config).
type Board struct {
	Name string

	// LED string: SPI controller and its data/clock pins.
	SPI     string
	LEDData int
	LEDClk  int
	LEDIn   int // unused MISO pin claimed by the controller

	// Command bridge UART; empty UART disables the bridge.
	UART     string
	UARTTX   int
	UARTRX   int
	UARTBaud uint32
}

// SPIIndex returns the controller number named by SPI.
func (b Board) SPIIndex() (int, bool) {
	switch b.SPI {
	case "spi0":
		return 0, true
	case "spi1":
		return 1, true
	}
	return 0, false
}
