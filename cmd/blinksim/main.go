// blinksim runs the LED controller on the host: reports go through the
// loopback transport and frames are captured from the SPI line and decoded.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/shlex"

	"blinkcode-go/bus"
	"blinkcode-go/drivers/ws281x"
	"blinkcode-go/services/blink"
	"blinkcode-go/services/config"
	"blinkcode-go/services/hal"
	"blinkcode-go/types"
	"blinkcode-go/x/conv"
)

const usage = `commands:
  fade <led> <r> <g> <b> <ticks>   start a fade ('c')
  set <led> <r> <g> <b>            set immediately (fade over 0 ticks)
  version                          query version ('v')
  read <led>                       read back a live colour ('r')
  reset                            arm the watchdog ('!')
  raw <b0> .. <b7>                 send a raw report (decimal, 0x.., or a letter)
  get                              read the status buffer
  tick [n]                         advance n ticks (manual clock only)
  frame                            show the last streamed frame
  status                           show loop stats
  help | quit`

type sim struct {
	cfg   types.DeviceConfig
	host  *hal.Loopback
	ticks chan time.Time

	mu    sync.Mutex
	frame []byte
	stats types.BlinkStats
	state types.BlinkState
}

func main() {
	device := flag.String("device", "sim", "embedded config to load")
	auto := flag.Bool("auto", false, "tick from a real-time clock instead of the tick command")
	flag.Parse()

	cfg, _, err := config.Load(*device)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[sim] config:", err)
		os.Exit(1)
	}
	if !*auto {
		cfg.StatsEveryTicks = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, closeFn, err := newSim(ctx, cfg, *auto)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[sim] hal:", err)
		os.Exit(1)
	}
	defer closeFn()

	fmt.Println("[sim]", cfg.Name, "leds", cfg.LEDCount, "hz", cfg.TickHz, "- type help")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		args, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Println("parse:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		if err := s.run(ctx, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

// newSim opens the host HAL and starts the blink loop on its own bus. The
// returned close func stops the loop before releasing the HAL.
func newSim(ctx context.Context, cfg types.DeviceConfig, auto bool) (*sim, func(), error) {
	res, err := hal.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx, stop := context.WithCancel(ctx)

	b := bus.NewBus(16)
	conn := b.NewConnection("sim")
	conn.Publish(conn.NewMessage(blink.TopicConfig, cfg, true))

	s := &sim{cfg: cfg, host: res.Host}
	svc := blink.New(b.NewConnection("blink"), res.Line, res.Transport, res.Watchdog)
	if !auto {
		s.ticks = make(chan time.Time)
		svc.Ticks = s.ticks
	}
	svc.Start(ctx)

	go s.watch(ctx, conn)
	go s.capture(ctx, res.Capture)
	return s, func() {
		stop()
		res.Close()
	}, nil
}

func (s *sim) run(ctx context.Context, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		fmt.Println(usage)
		return nil
	case "fade", "set":
		bits := []int{8, 8, 8, 8, 16}
		if cmd == "set" {
			bits = bits[:4]
		}
		v, err := nums(args, bits...)
		if err != nil {
			return err
		}
		var ticks uint16
		if cmd == "fade" {
			ticks = uint16(v[4])
		}
		return s.send(ctx, types.FadeReport(uint8(v[0]), types.RGB(uint8(v[1]), uint8(v[2]), uint8(v[3])), ticks))
	case "version":
		rep, err := s.exchange(ctx, types.CommandReport(types.CmdVersion, 0))
		if err != nil {
			return err
		}
		fmt.Printf("version %c%c\n", rep[types.OffGreen], rep[types.OffBlue])
		return nil
	case "read":
		v, err := nums(args, 8)
		if err != nil {
			return err
		}
		rep, err := s.exchange(ctx, types.CommandReport(types.CmdReadLED, uint8(v[0])))
		if err != nil {
			return err
		}
		fmt.Printf("led %d r=%d g=%d b=%d\n", rep[types.OffLED], rep[types.OffRed], rep[types.OffGreen], rep[types.OffBlue])
		return nil
	case "reset":
		return s.send(ctx, types.CommandReport(types.CmdArmReset, 0))
	case "raw":
		if len(args) == 0 || len(args) > types.ReportSize {
			return errors.New("raw takes 1..8 bytes")
		}
		var rep types.Report
		for i, a := range args {
			b, err := parseByte(a)
			if err != nil {
				return err
			}
			rep[i] = b
		}
		out, err := s.exchange(ctx, rep)
		if err != nil {
			return err
		}
		fmt.Println(string(conv.HexBytes([]byte("status "), out[:])))
		return nil
	case "get":
		rep, err := s.host.GetFeature(ctx)
		if err != nil {
			return err
		}
		fmt.Println(string(conv.HexBytes([]byte("status "), rep[:])))
		return nil
	case "tick":
		if s.ticks == nil {
			return errors.New("running on the real-time clock")
		}
		n := 1
		if len(args) > 0 {
			v, err := nums(args, 16)
			if err != nil {
				return err
			}
			n = v[0]
		}
		for i := 0; i < n; i++ {
			s.ticks <- time.Now()
		}
		return nil
	case "frame":
		s.mu.Lock()
		f := append([]byte(nil), s.frame...)
		s.mu.Unlock()
		if f == nil {
			fmt.Println("no frame yet")
			return nil
		}
		for i := 0; i+2 < len(f); i += ws281x.BytesPerLED {
			fmt.Printf("led %2d  r=%3d g=%3d b=%3d\n", i/ws281x.BytesPerLED+1, f[i+1], f[i], f[i+2])
		}
		return nil
	case "status":
		s.mu.Lock()
		st, lv := s.stats, s.state
		s.mu.Unlock()
		fmt.Printf("state=%s (%s) ticks=%d frames=%d overruns=%d reports=%d ignored=%d fading=%d\n",
			lv.Level, lv.Status, st.Ticks, st.Frames, st.Overruns, st.Reports, st.Ignored, st.Fading)
		return nil
	}
	return errors.New("unknown command " + strconv.Quote(cmd) + " (try help)")
}

func (s *sim) send(ctx context.Context, rep types.Report) error {
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.host.SetFeature(cctx, rep)
}

func (s *sim) exchange(ctx context.Context, rep types.Report) (types.Report, error) {
	if err := s.send(ctx, rep); err != nil {
		return types.Report{}, err
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.host.GetFeature(cctx)
}

// watch keeps the latest stats and state.
func (s *sim) watch(ctx context.Context, conn *bus.Connection) {
	stats := conn.Subscribe(blink.TopicStats)
	state := conn.Subscribe(blink.TopicState)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-stats.Channel():
			if st, ok := m.Payload.(types.BlinkStats); ok {
				s.mu.Lock()
				s.stats = st
				s.mu.Unlock()
			}
		case m := <-state.Channel():
			if st, ok := m.Payload.(types.BlinkState); ok {
				s.mu.Lock()
				s.state = st
				s.mu.Unlock()
				if st.Level == types.LevelResetArmed {
					fmt.Println("\n[sim] reset armed; host watchdog will only report")
				}
			}
		}
	}
}

// capture drains the captured line and keeps the last complete frame.
func (s *sim) capture(ctx context.Context, c *hal.CaptureSPI) {
	wire := make([]byte, ws281x.WireLen(s.cfg.LEDCount))
	timing := s.cfg.Wire.Timing()
	for {
		if _, err := c.ReadFull(ctx, wire); err != nil {
			return
		}
		grb, err := timing.Decode(wire)
		if err != nil {
			fmt.Println("\n[sim] bad frame:", err)
			continue
		}
		s.mu.Lock()
		s.frame = grb
		s.mu.Unlock()
	}
}

// nums parses one unsigned argument per entry of bits, each limited to that
// many bits.
func nums(args []string, bits ...int) ([]int, error) {
	if len(args) != len(bits) {
		return nil, errors.New("want " + strconv.Itoa(len(bits)) + " arguments")
	}
	out := make([]int, len(bits))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, bits[i])
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

// parseByte accepts decimal, 0x hex, or a single letter like c.
func parseByte(a string) (byte, error) {
	if len(a) == 1 && (a[0] < '0' || a[0] > '9') {
		return a[0], nil
	}
	v, err := strconv.ParseUint(a, 0, 8)
	return byte(v), err
}
