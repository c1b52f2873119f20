package heartbeat

import (
	"context"
	"strings"
	"testing"
	"time"

	"blinkcode-go/bus"
	"blinkcode-go/types"
)

func TestHeartbeatReportsLatestStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(topicState, types.BlinkState{Level: types.LevelRunning}, true))
	conn.Publish(conn.NewMessage(topicConfigHeartbeat, map[string]any{"interval": 0.05}, true))

	lines := make(chan string, 16)
	s := &Service{Print: func(l string) { lines <- l }}
	_ = s.Start(ctx, conn)

	// Stats are not retained; keep publishing until one lands in a line.
	deadline := time.After(2 * time.Second)
	for {
		conn.Publish(conn.NewMessage(topicStats, types.BlinkStats{Ticks: 120, Overruns: 3}, false))
		select {
		case l := <-lines:
			if strings.Contains(l, "ticks=120") {
				if !strings.Contains(l, "state=running") || !strings.Contains(l, "overruns=3") {
					t.Fatalf("unexpected line %q", l)
				}
				return
			}
		case <-deadline:
			t.Fatal("no heartbeat with stats")
		}
	}
}
