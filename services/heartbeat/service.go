// Package heartbeat periodically logs the health of the DMX output.
package heartbeat

import (
	"context"
	"time"

	"smarthome-go/bus"
	"smarthome-go/services/home"
	"smarthome-go/types"
	"smarthome-go/x/fmtx"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

const (
	DefaultInterval = 10 * time.Second
	requestTimeout  = time.Second
)

type Service struct {
	// Interval between beats; zero means DefaultInterval.
	Interval time.Duration
	// Log receives each line; nil prints to the console.
	Log func(string)

	boot time.Time
	last types.DMXStats
}

func (s *Service) log(line string) {
	if s.Log != nil {
		s.Log(line)
		return
	}
	println(line)
}

// beat asks home for its DMX counters and logs them with the delta since the
// previous beat.
func (s *Service) beat(ctx context.Context, conn *bus.Connection) {
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	m, err := conn.RequestWait(rctx, conn.NewMessage(home.TopicDMXControl("stats"), nil, false))
	if err != nil {
		s.log("[heartbeat] home unreachable: " + err.Error())
		return
	}
	rep, _ := m.Payload.(types.Reply)
	st, ok := rep.Value.(types.DMXStats)
	if !rep.OK || !ok {
		s.log("[heartbeat] bad stats reply: " + rep.Error)
		return
	}
	up := time.Since(s.boot) / time.Second
	s.log(fmtx.Sprintf("[heartbeat] up=%ds frames=%d (+%d) send_errors=%d rx_frames=%d framing_errors=%d",
		int64(up), st.Frames, st.Frames-s.last.Frames, st.SendErrors, st.RxFrames, st.FramingErrors))
	s.last = st
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log("[heartbeat] stopping")
			return
		case <-tick.C:
			s.beat(ctx, conn)
		case msg := <-cfgSub.Channel():
			hc, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok || hc.IntervalMs == 0 {
				s.log("[heartbeat] ignoring config")
				continue
			}
			tick.Reset(time.Duration(hc.IntervalMs) * time.Millisecond)
			s.log(fmtx.Sprintf("[heartbeat] interval %dms", hc.IntervalMs))
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.boot = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
