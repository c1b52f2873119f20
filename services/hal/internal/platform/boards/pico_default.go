//go:build (rp2040 || rp2350) && !board_pico_uart1

package boards

// Pico bring-up: string on SPI0 TX (GP19), bridge on UART0 (GP0/GP1).
var Selected = Board{
	Name:     "pico_default",
	SPI:      "spi0",
	LEDData:  19,
	LEDClk:   18,
	LEDIn:    16,
	UART:     "uart0",
	UARTTX:   0,
	UARTRX:   1,
	UARTBaud: 115200,
}
