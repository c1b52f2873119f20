package blink

import (
	"context"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/drivers/ws281x"
	"blinkcode-go/errcode"
	"blinkcode-go/services/hal"
	"blinkcode-go/types"
	"blinkcode-go/x/mathx"
	"blinkcode-go/x/timex"
)

var (
	topicRoot   = bus.T("blink")
	TopicConfig = bus.T("config", "blink")
	TopicState  = topicRoot.Append("state")
	TopicStats  = topicRoot.Append("stats")
)

// Service is the cooperative loop. One goroutine owns the store, engine,
// dispatcher and frame buffers; the line's completion context only touches
// the streamer.
type Service struct {
	conn *bus.Connection
	line ws281x.Line
	tr   hal.Transport
	wd   hal.Watchdog

	// Ticks overrides the tick source (tests, simulator). When nil the
	// loop runs a ticker at the configured rate.
	Ticks <-chan time.Time

	cfg      types.DeviceConfig
	pending  *types.DeviceConfig
	store    *Store
	engine   *Engine
	disp     *Dispatcher
	streamer *ws281x.Streamer

	ticker *time.Ticker

	frames [2][]byte
	back   int

	framesBase uint32 // frames counted by replaced streamers
	ticks      uint32
	overruns   uint32
	lagging    bool // last tick found the line still streaming
	level      types.Level
}

func New(conn *bus.Connection, line ws281x.Line, tr hal.Transport, wd hal.Watchdog) *Service {
	return &Service{conn: conn, line: line, tr: tr, wd: wd}
}

// Start runs the loop in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run waits for a valid config on config/blink, then loops until ctx ends.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState(types.LevelIdle, "awaiting_config")
	for s.store == nil {
		select {
		case <-ctx.Done():
			s.publishState(types.LevelStopped, "cancelled")
			return
		case msg := <-cfgSub.Channel():
			if cfg, ok := s.acceptConfig(msg); ok {
				s.apply(cfg)
			}
		}
	}

	tickC := s.Ticks
	if tickC == nil {
		s.ticker = time.NewTicker(s.cfg.Period())
		defer s.ticker.Stop()
		tickC = s.ticker.C
	}

	s.publishState(types.LevelRunning, "started")
	for {
		select {
		case <-ctx.Done():
			s.publishState(types.LevelStopped, "cancelled")
			return
		case <-tickC:
			s.tick()
		case <-s.tr.Ready():
			for s.tr.Poll(s.disp) {
			}
			if s.disp.ResetArmed() && s.level != types.LevelResetArmed {
				s.publishState(types.LevelResetArmed, string(errcode.ResetArmed))
			}
		case msg := <-cfgSub.Channel():
			if cfg, ok := s.acceptConfig(msg); ok && cfg != s.cfg {
				s.pending = &cfg
			}
		}
	}
}

// tick is one period: re-arm the line with a fresh snapshot if the last
// frame has drained, then advance the fades.
func (s *Service) tick() {
	s.ticks++
	if !s.streamer.Idle() {
		s.overruns++
		if !s.lagging {
			s.lagging = true
			println("[blink] frame overran the tick period")
			s.publishState(s.level, string(errcode.Overrun))
		}
	} else {
		if s.lagging {
			s.lagging = false
			s.publishState(s.level, string(errcode.OK))
		}
		if s.pending != nil {
			s.apply(*s.pending)
			s.pending = nil
		}
		buf := s.frames[s.back]
		s.store.Snapshot(buf)
		if err := s.streamer.Arm(buf); err == nil {
			s.back ^= 1
		}
	}
	s.engine.Tick()

	if every := s.cfg.StatsEveryTicks; every > 0 && s.ticks%every == 0 {
		s.conn.Publish(s.conn.NewMessage(TopicStats, s.Stats(), false))
	}
}

// Stats returns the loop counters. Loop context only.
func (s *Service) Stats() types.BlinkStats {
	st := types.BlinkStats{
		Ticks:    s.ticks,
		Overruns: s.overruns,
		TSms:     timex.NowMs(),
	}
	if s.streamer != nil {
		st.Frames = s.framesBase + s.streamer.Frames()
	}
	if s.disp != nil {
		st.Reports = s.disp.reports
		st.Ignored = s.disp.ignored
	}
	if s.engine != nil {
		st.Fading = s.engine.Fading()
	}
	return st
}

func (s *Service) acceptConfig(msg *bus.Message) (types.DeviceConfig, bool) {
	if msg == nil {
		return types.DeviceConfig{}, false
	}
	var cfg types.DeviceConfig
	switch v := msg.Payload.(type) {
	case types.DeviceConfig:
		cfg = v
	case *types.DeviceConfig:
		if v == nil {
			return cfg, false
		}
		cfg = *v
	default:
		println("[blink] config: unexpected payload")
		return cfg, false
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		println("[blink] config rejected:", err.Error())
		s.publishState(types.LevelError, string(errcode.Of(err)))
		return cfg, false
	}
	return cfg, true
}

// apply (re)builds the loop state for cfg. The streamer must be idle.
// LED colours and fades in progress survive for indices that still exist.
func (s *Service) apply(cfg types.DeviceConfig) {
	old := s.store
	s.cfg = cfg
	s.store = NewStore(cfg.LEDCount)
	if old != nil {
		for i := 1; i <= mathx.Min(s.store.Len(), old.Len()); i++ {
			c, _ := old.Color(i)
			s.store.SetColor(i, c)
		}
	}
	prevEngine := s.engine
	s.engine = NewEngine(s.store)
	if prevEngine != nil {
		s.engine.carry(prevEngine)
	}

	d := NewDispatcher(cfg, s.store, s.engine, s.wd)
	if prev := s.disp; prev != nil {
		d.status = prev.status
		d.resetArmed = prev.resetArmed
		d.reports, d.ignored = prev.reports, prev.ignored
	}
	s.disp = d

	frameLen := cfg.LEDCount * ws281x.BytesPerLED
	s.frames = [2][]byte{make([]byte, frameLen), make([]byte, frameLen)}
	s.back = 0

	timing := cfg.Wire.Timing()
	if s.streamer == nil || s.streamer.Timing() != timing {
		if s.streamer != nil {
			s.framesBase += s.streamer.Frames()
		}
		s.streamer = ws281x.NewStreamer(s.line, timing)
	}
	if s.ticker != nil {
		s.ticker.Reset(cfg.Period())
	}
	println("[blink] configured", cfg.Name, "leds", cfg.LEDCount, "hz", cfg.TickHz)
}

func (s *Service) publishState(level types.Level, status string) {
	s.level = level
	s.conn.Publish(s.conn.NewMessage(TopicState, types.BlinkState{
		Level:  level,
		Status: status,
		TSms:   timex.NowMs(),
	}, true))
}
