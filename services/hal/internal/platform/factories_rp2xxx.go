// services/hal/internal/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"time"

	"blinkcode-go/errcode"
	"blinkcode-go/services/hal/internal/halcore"
	"blinkcode-go/services/hal/internal/platform/boards"
	"blinkcode-go/types"
	"blinkcode-go/x/mathx"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Default configures the selected board: its SPI controller clocked at the
// wire bit rate for the LED string, the hardware watchdog and, if the board
// names one, the UART command bridge.
func Default(cfg types.DeviceConfig) (halcore.Platform, error) {
	b := boards.Selected

	idx, ok := b.SPIIndex()
	if !ok {
		println("[hal] unknown spi controller:", b.SPI)
		return halcore.Platform{}, errcode.Wrap(errcode.Unsupported, "spi", b.SPI)
	}
	spi := machine.SPI0
	if idx == 1 {
		spi = machine.SPI1
	}
	if err := spi.Configure(machine.SPIConfig{
		Frequency: cfg.Wire.BitRateHz,
		SCK:       machine.Pin(b.LEDClk),
		SDO:       machine.Pin(b.LEDData),
		SDI:       machine.Pin(b.LEDIn),
		Mode:      0,
	}); err != nil {
		println("[hal]", b.SPI, "configure failed:", err.Error())
		return halcore.Platform{}, errcode.Wrap(errcode.Error, b.SPI, err.Error())
	}
	// Idle low between frames so the string latches.
	_, _ = spi.Transfer(0)

	p := halcore.Platform{
		Name:     b.Name,
		SPI:      spi,
		Watchdog: rp2Watchdog{},
	}

	var hw *uartx.UART
	switch b.UART {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	}
	if hw != nil {
		// Defaults inside uartx apply if zero.
		_ = hw.Configure(uartx.UARTConfig{
			BaudRate: b.UARTBaud,
			TX:       machine.Pin(b.UARTTX),
			RX:       machine.Pin(b.UARTRX),
		})
		p.Serial = &rp2SerialPort{u: hw}
	}
	return p, nil
}

// ---- watchdog ----

// The RP2040 watchdog counts 24 bits of microseconds at half rate.
const maxWatchdogMs = 8388

type rp2Watchdog struct{}

func (rp2Watchdog) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return errcode.InvalidParams
	}
	ms := mathx.Clamp(uint32(timeout/time.Millisecond), 1, maxWatchdogMs)
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: ms}); err != nil {
		return err
	}
	return machine.Watchdog.Start()
}

// ---- rp2SerialPort: adapts uartx to halcore.SerialPort ----

type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}
