package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// loop runs a task on a fixed interval until stopped
type loop struct {
	name         string
	interval     time.Duration
	initialDelay time.Duration
	timeout      time.Duration
	task         func(ctx context.Context) error

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func newLoop(name string, interval, initialDelay time.Duration, task func(ctx context.Context) error) *loop {
	return &loop{
		name:         name,
		interval:     interval,
		initialDelay: initialDelay,
		timeout:      2 * time.Minute,
		task:         task,
	}
}

// Start begins the loop. Calling Start on a running loop is a no-op.
func (l *loop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.running = true
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go l.run(ctx)
	slog.Info("job started", slog.String("job", l.name), slog.Duration("interval", l.interval))
}

// Stop cancels the loop, including an in-flight pass, and waits for it to
// exit
func (l *loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.cancel()
	l.mu.Unlock()

	l.wg.Wait()
	slog.Info("job stopped", slog.String("job", l.name))
}

// IsRunning returns whether the loop is running
func (l *loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *loop) run(ctx context.Context) {
	defer l.wg.Done()

	// give the server a moment to come up before the first pass
	if l.initialDelay > 0 {
		delay := time.NewTimer(l.initialDelay)
		select {
		case <-delay.C:
		case <-ctx.Done():
			delay.Stop()
			return
		}
	}
	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (l *loop) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	if err := l.task(ctx); err != nil && parent.Err() == nil {
		slog.Error("job run failed", slog.String("job", l.name), slog.String("error", err.Error()))
	}
}
