//go:build (rp2040 || rp2350) && board_pico_uart1

package boards

// Same string wiring, command bridge moved to UART1 (GP4/GP5) so UART0 stays
// free for the console.
var Selected = Board{
	Name:     "pico_uart1",
	SPI:      "spi0",
	LEDData:  19,
	LEDClk:   18,
	LEDIn:    16,
	UART:     "uart1",
	UARTTX:   4,
	UARTRX:   5,
	UARTBaud: 115200,
}
