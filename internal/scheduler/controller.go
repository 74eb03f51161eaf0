package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// stopWait bounds how long Stop waits for the loop to return.
const stopWait = 5 * time.Second

// Controller switches the analysis loop on and off at runtime.
type Controller struct {
	mu      sync.Mutex
	parent  context.Context
	run     func(ctx context.Context)
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewController wraps run, which must return once its context is cancelled.
// A nil run only tracks the running flag.
func NewController(parent context.Context, run func(ctx context.Context)) *Controller {
	return &Controller{
		parent: parent,
		run:    run,
	}
}

// Start launches the loop. It reports false when the loop is already running.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return false
	}

	ctx, cancel := context.WithCancel(c.parent)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.running = true

	if c.run == nil {
		close(done)
	} else {
		go func() {
			defer close(done)
			c.run(ctx)
		}()
	}

	zap.L().Info("🟢 bot started")
	return true
}

// Stop cancels the loop and waits for it to return. It reports false when
// the loop is not running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopWait):
		zap.L().Warn("⚠️ analysis loop did not stop in time")
	}

	zap.L().Info("🔴 bot stopped")
	return true
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
