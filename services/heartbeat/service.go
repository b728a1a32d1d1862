package heartbeat

import (
	"context"
	"sync"

	"camremote-go/services/hal/indicator"
)

// Player runs one pattern to completion.
type Player interface {
	Play(p indicator.Pattern)
}

// Service replays a pattern back to back while started, e.g. the
// waiting-for-input blink. A pattern in progress always completes before the
// loop notices Stop.
type Service struct {
	led     Player
	pattern indicator.Pattern

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(led Player, p indicator.Pattern) *Service {
	return &Service{led: led, pattern: p}
}

// Start launches the loop. A second Start while running does nothing.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.serviceLoop(ctx, s.done)
}

func (s *Service) serviceLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		s.led.Play(s.pattern)
	}
}

// Stop ends the loop and waits for the current pattern to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
