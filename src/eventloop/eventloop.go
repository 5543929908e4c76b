package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"win-dialog-shot/src/config"
	"win-dialog-shot/src/hotkey"
	"win-dialog-shot/src/singleinstance"
	"win-dialog-shot/src/tray"
	"win-dialog-shot/src/worker"
)

// State is the capture trigger state.
type State int32

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "Capturing"
	}
	return "Idle"
}

// Capturer runs one complete capture and reports its outcome.
type Capturer interface {
	Handle(ctx context.Context) error
}

// Loop is the single-threaded coordinator for hotkey, tray and run-once triggers.
// At most one capture is in flight; triggers that arrive meanwhile are dropped.
type Loop struct {
	capturer       Capturer
	pool           *worker.Pool
	srv            singleinstance.Server
	state          atomic.Int32
	results        chan result
	hotkeyCh       chan struct{}
	defaultTooltip string
	deadline       time.Duration
	dropped        atomic.Int64

	// abandoned is set when shutdown gave up on a capture that ignored its deadline.
	abandoned bool
}

type result struct {
	err    error
	conn   singleinstance.Conn
	cancel context.CancelFunc
}

// New creates a new event loop with defaults based on config.
// If cfg is nil or cfg.CaptureDeadline <= 0, a 10s deadline is used.
func New(cfg *config.Config, capturer Capturer) *Loop {
	deadline := time.Duration(config.DefaultCaptureDeadlineSec) * time.Second
	if cfg != nil && cfg.CaptureDeadline > 0 {
		deadline = cfg.CaptureDeadline
	}

	return &Loop{
		capturer:       capturer,
		pool:           worker.New(1),
		results:        make(chan result, 1),
		hotkeyCh:       make(chan struct{}, 4),
		defaultTooltip: "win-dialog-shot",
		deadline:       deadline,
	}
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// State reports the current trigger state; safe from any goroutine.
func (l *Loop) State() State { return State(l.state.Load()) }

// Dropped returns how many triggers were ignored because a capture was running.
func (l *Loop) Dropped() int64 { return l.dropped.Load() }

// Trigger requests a capture from any goroutine. It never blocks.
func (l *Loop) Trigger() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
		l.dropped.Add(1)
		log.Printf("Trigger: queue full, dropping")
	}
}

// StartHotkey registers a global hotkey and posts events into the loop.
func (l *Loop) StartHotkey(ctx context.Context, combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(ctx, combo, l.Trigger)
}

// SetServer attaches the run-once server. Run starts it; without one, only
// local triggers are served.
func (l *Loop) SetServer(srv singleinstance.Server) { l.srv = srv }

// Run processes triggers until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.closePool()

	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		defer l.srv.Close()
		if p := l.srv.Port(); p > 0 {
			log.Printf("Resident listening on 127.0.0.1:%d", p)
			tray.SetAboutLine("Resident port", fmt.Sprint(p))
		}

		// Accept loop in background to avoid blocking result handling
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			defer close(reqCh)
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					return
				}
				select {
				case reqCh <- conn:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}
		}()
	}

	log.Printf("[RUN] Background listener is active. Waiting for hotkeys...")
	for {
		select {
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		case <-l.hotkeyCh:
			l.startCapture(ctx, nil)
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.startCapture(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

// drain waits for an in-flight capture so the overlay and clipboard are released
// before the process exits.
func (l *Loop) drain() {
	if l.State() != Capturing {
		return
	}
	select {
	case res := <-l.results:
		l.handleResult(res)
	case <-time.After(l.deadline):
		log.Printf("Shutdown: capture still running after %v, abandoning it", l.deadline)
		l.abandoned = true
	}
}

func (l *Loop) closePool() {
	wait := l.deadline
	if l.abandoned {
		wait = 0
	}
	if !l.pool.CloseTimeout(wait) {
		log.Printf("Shutdown: worker did not stop, exiting without it")
	}
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	if s == Capturing {
		tray.UpdateTooltip(l.defaultTooltip + " - capturing...")
	} else {
		tray.UpdateTooltip(l.defaultTooltip)
	}
}

func (l *Loop) startCapture(ctx context.Context, conn singleinstance.Conn) {
	if !l.state.CompareAndSwap(int32(Idle), int32(Capturing)) {
		l.dropped.Add(1)
		log.Printf("[INFO] Capture already in progress, trigger dropped")
		if conn != nil {
			_ = conn.RespondError(singleinstance.ErrBusy.Error())
			_ = conn.Close()
		}
		return
	}
	l.setState(Capturing)

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	submitted := l.pool.Submit(jobCtx, "capture", l.capturer.Handle, func(err error) {
		l.results <- result{err: err, conn: conn, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setState(Idle)
		l.dropped.Add(1)
		log.Printf("[INFO] Worker busy, trigger dropped")
		if conn != nil {
			_ = conn.RespondError(singleinstance.ErrBusy.Error())
			_ = conn.Close()
		}
	}
}

func (l *Loop) handleResult(res result) {
	defer func() {
		if res.cancel != nil {
			res.cancel()
		}
		l.setState(Idle)
	}()
	if res.conn == nil {
		return
	}
	defer res.conn.Close()

	if res.err != nil {
		msg := res.err.Error()
		if errors.Is(res.err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("capture exceeded %v", l.deadline)
		}
		_ = res.conn.RespondError(msg)
		return
	}
	_ = res.conn.RespondSuccess("copied to clipboard")
}

// Deadline returns the configured capture deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }
