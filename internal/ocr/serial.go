package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
)

type request struct {
	ctx   context.Context
	img   image.Image
	reply chan response
}

type response struct {
	text string
	err  error
}

// Serial owns an Engine in a dedicated goroutine and feeds it one request
// at a time. Callers give up when their context or the per-call timeout
// expires; a wedged engine therefore stalls the queue but never a caller.
type Serial struct {
	engine  Engine
	timeout time.Duration

	reqs      chan request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewSerial starts the owning goroutine. A timeout of zero disables the
// per-call bound. The engine is closed when the Serial is closed.
func NewSerial(engine Engine, timeout time.Duration) *Serial {
	s := &Serial{
		engine:  engine,
		timeout: timeout,
		reqs:    make(chan request),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Serial) loop() {
	defer close(s.stopped)
	defer func() {
		if err := s.engine.Close(); err != nil {
			slog.Warn("Failed to close OCR engine", "error", err)
		}
	}()

	for {
		select {
		case <-s.done:
			return
		case req := <-s.reqs:
			if err := req.ctx.Err(); err != nil {
				req.reply <- response{err: err}
				continue
			}
			text, err := s.call(req)
			req.reply <- response{text: text, err: err}
		}
	}
}

func (s *Serial) call(req request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ocr: engine panic: %v", r)
		}
	}()
	return s.engine.Text(req.ctx, req.img)
}

// Text queues img for recognition and waits for the result.
func (s *Serial) Text(ctx context.Context, img image.Image) (string, error) {
	parent := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Buffered so the owner never blocks on a caller that already left.
	reply := make(chan response, 1)

	select {
	case s.reqs <- request{ctx: ctx, img: img, reply: reply}:
	case <-ctx.Done():
		return "", s.ctxErr(parent, ctx)
	case <-s.done:
		return "", ErrClosed
	}

	select {
	case r := <-reply:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && parent.Err() == nil {
			return "", s.ctxErr(parent, ctx)
		}
		return r.text, r.err
	case <-ctx.Done():
		return "", s.ctxErr(parent, ctx)
	case <-s.done:
		return "", ErrClosed
	}
}

func (s *Serial) ctxErr(parent, ctx context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	}
	return ctx.Err()
}

// Close stops accepting requests and closes the engine once the in-flight
// call returns. If that call is still running after one timeout period,
// Close returns ErrTimeout and the engine is closed later.
func (s *Serial) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.timeout <= 0 {
			<-s.stopped
			return
		}
		select {
		case <-s.stopped:
		case <-time.After(s.timeout):
			s.closeErr = fmt.Errorf("%w waiting for in-flight call", ErrTimeout)
		}
	})
	return s.closeErr
}
