package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"airgrid/debug"
)

// wireHand is the JSON shape the external tracker sends per hand.
type wireHand struct {
	Label      string       `json:"label"`
	Landmarks  [][3]float64 `json:"landmarks"`
	Confidence float64      `json:"confidence"`
}

// wireFrame is one tracker datagram. An empty or missing hands array is a
// valid "no hands" observation.
type wireFrame struct {
	Hands []wireHand `json:"hands"`
}

// UDPSource receives tracker frames as JSON datagrams and republishes
// them as Frames, applying one smoother per hand label. The tracker
// process (MediaPipe or similar) runs out of process and just fires
// datagrams at us; a lost datagram is corrected by the next frame.
type UDPSource struct {
	addr      string
	frames    chan Frame
	smoothers map[string]Smoother
	newSmooth func() Smoother
}

// NewUDPSource creates a source listening on addr (e.g. ":9400").
// newSmoother builds the per-hand landmark filter; nil disables smoothing.
func NewUDPSource(addr string, newSmoother func() Smoother) *UDPSource {
	return &UDPSource{
		addr:      addr,
		frames:    make(chan Frame, 4),
		smoothers: make(map[string]Smoother),
		newSmooth: newSmoother,
	}
}

// Frames returns the channel of decoded frames. Closed when Run returns.
func (s *UDPSource) Frames() <-chan Frame {
	return s.frames
}

// Run listens until ctx is cancelled (blocking - run in goroutine).
func (s *UDPSource) Run(ctx context.Context) error {
	laddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", s.addr, err)
	}
	defer conn.Close()
	defer close(s.frames)

	debug.Log("tracking", "listening on %s", s.addr)

	buf := make([]byte, 65536)
	for {
		if ctx.Err() != nil {
			return nil
		}
		// Short deadline so cancellation is noticed between datagrams.
		conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			debug.Log("tracking", "read error: %v", err)
			continue
		}

		frame, err := s.decode(buf[:n], time.Now())
		if err != nil {
			debug.LogEvery(30, "tracking", "bad datagram: %v", err)
			continue
		}

		select {
		case s.frames <- frame:
		default:
			// Consumer is behind; drop the frame, the next one
			// supersedes it anyway.
			debug.LogEvery(100, "tracking", "frame dropped")
		}
	}
}

func (s *UDPSource) decode(data []byte, now time.Time) (Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return Frame{}, err
	}

	frame := Frame{At: now}
	seen := make(map[string]bool, len(wf.Hands))
	for _, wh := range wf.Hands {
		if wh.Label == "" || len(wh.Landmarks) == 0 {
			continue // malformed hand: skip it, keep the frame
		}
		seen[wh.Label] = true
		landmarks := wh.Landmarks
		if s.newSmooth != nil {
			sm, ok := s.smoothers[wh.Label]
			if !ok {
				sm = s.newSmooth()
				s.smoothers[wh.Label] = sm
			}
			landmarks = sm.Smooth(landmarks)
		}
		frame.Hands = append(frame.Hands, Hand{
			Label:      wh.Label,
			Landmarks:  landmarks,
			Confidence: wh.Confidence,
		})
	}

	// Drop smoother state for hands that left the frame so a returning
	// label starts fresh instead of gliding from its old position.
	for label := range s.smoothers {
		if !seen[label] {
			delete(s.smoothers, label)
		}
	}
	return frame, nil
}
