package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type fakeSink struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSink) Notify(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeSink) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type DispatcherSuite struct {
	suite.Suite
	sink *fakeSink
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.sink = &fakeSink{}
}

func (s *DispatcherSuite) run(d *Dispatcher) <-chan error {
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	return done
}

func (s *DispatcherSuite) TestDeliversBufferedMessages() {
	d := NewDispatcher(s.sink, WithLogger(quietLogger()))
	s.NoError(d.Notify(context.Background(), "one"))
	s.NoError(d.Notify(context.Background(), "two"))

	done := s.run(d)
	d.Close()
	s.Require().NoError(<-done)

	s.Equal([]string{"one", "two"}, s.sink.received())
}

func (s *DispatcherSuite) TestDropsWhenBufferFullWithoutBlocking() {
	d := NewDispatcher(s.sink, WithBufferSize(1), WithLogger(quietLogger()))

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = d.Notify(context.Background(), "msg")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		s.Fail("Notify blocked on a full buffer")
	}

	done := s.run(d)
	d.Close()
	s.Require().NoError(<-done)
	s.Len(s.sink.received(), 1)
}

func (s *DispatcherSuite) TestSinkFailureIsSwallowed() {
	s.sink.err = errors.New("webhook down")
	d := NewDispatcher(s.sink, WithLogger(quietLogger()))

	s.NoError(d.Notify(context.Background(), "alert"))
	done := s.run(d)
	d.Close()
	s.Require().NoError(<-done)
	s.Len(s.sink.received(), 1)
}

func (s *DispatcherSuite) TestNotifyAfterCloseIsANoop() {
	d := NewDispatcher(s.sink, WithLogger(quietLogger()))
	d.Close()
	s.NotPanics(func() {
		s.NoError(d.Notify(context.Background(), "late"))
	})
}
