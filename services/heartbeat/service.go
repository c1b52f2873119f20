package heartbeat

import (
	"context"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/types"
	"blinkcode-go/x/conv"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicStats           = bus.T("blink", "stats")
	topicState           = bus.T("blink", "state")
)

const defaultInterval = 5 * time.Second

// Service prints a periodic line with the latest blink stats and state.
type Service struct {
	// Print receives each heartbeat line; nil prints to the console.
	Print func(line string)

	last  types.BlinkStats
	state types.BlinkState
}

func (s *Service) emit(line string) {
	if s.Print != nil {
		s.Print(line)
		return
	}
	println("[heartbeat]", line)
}

// Line formats the current heartbeat.
func (s *Service) Line(now time.Time) string {
	return now.Format("15:04:05") +
		" state=" + string(s.state.Level) +
		" ticks=" + conv.U32(s.last.Ticks) +
		" frames=" + conv.U32(s.last.Frames) +
		" overruns=" + conv.U32(s.last.Overruns) +
		" reports=" + conv.U32(s.last.Reports) +
		" ignored=" + conv.U32(s.last.Ignored) +
		" fading=" + conv.U32(uint32(s.last.Fading))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	statsSub := conn.Subscribe(topicStats)
	defer conn.Unsubscribe(statsSub)
	stateSub := conn.Subscribe(topicState)
	defer conn.Unsubscribe(stateSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()
	enabled := true

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case t := <-tick.C:
			if enabled {
				s.emit(s.Line(t))
			}
		case msg := <-statsSub.Channel():
			if st, ok := msg.Payload.(types.BlinkStats); ok {
				s.last = st
			}
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.BlinkState); ok {
				s.state = st
			}
		case msg := <-cfgSub.Channel():
			// Change tick interval if needed; 0 disables the line.
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval"].(float64); ok {
					if iv <= 0 {
						enabled = false
						println("[heartbeat] disabled")
						continue
					}
					enabled = true
					tick.Reset(time.Duration(iv * float64(time.Second)))
					println("[heartbeat] interval set to", int(iv), "seconds")
				}
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
