package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"bnb-dashboard/pkg/types"
)

type fakeSampler struct {
	mu      sync.Mutex
	sampled []string
}

func (f *fakeSampler) Price(_ context.Context, symbol string) types.PricePoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sampled = append(f.sampled, symbol)
	return types.PricePoint{Symbol: symbol, Price: "1.00", Source: types.SourceOKX}
}

func (f *fakeSampler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sampled)
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeAnalyzer) AnalyzeAll(context.Context) []*types.AlertData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeAnalyzer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// go test -v --run TestRunOnce
func TestRunOnce(t *testing.T) {
	sampler := &fakeSampler{}
	an := &fakeAnalyzer{}
	s := NewScheduler(sampler, an, nil, []string{"BNBUSDT", "BTCUSDT"}, time.Minute)

	s.RunOnce(context.Background())

	if sampler.count() != 2 {
		t.Errorf("sampled %v, want both symbols", sampler.sampled)
	}
	if an.count() != 1 {
		t.Errorf("analyzer calls = %d, want 1", an.count())
	}
}

// go test -v --run TestStartStopsOnCancel
func TestStartStopsOnCancel(t *testing.T) {
	sampler := &fakeSampler{}
	an := &fakeAnalyzer{}
	s := NewScheduler(sampler, an, nil, []string{"BNBUSDT"}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for an.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d rounds ran", an.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

// go test -v --run TestControllerStartStop
func TestControllerStartStop(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	returned := make(chan struct{}, 2)

	c := NewController(context.Background(), func(ctx context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
		<-ctx.Done()
		returned <- struct{}{}
	})

	if c.Running() {
		t.Fatal("controller should start stopped")
	}
	if c.Stop() {
		t.Error("Stop on a stopped controller should report false")
	}
	if !c.Start() {
		t.Fatal("first Start should report true")
	}
	if c.Start() {
		t.Error("second Start should report false")
	}
	if !c.Running() {
		t.Error("expected running after Start")
	}

	if !c.Stop() {
		t.Fatal("Stop should report true while running")
	}
	select {
	case <-returned:
	default:
		t.Error("Stop returned before the loop exited")
	}
	if c.Running() {
		t.Error("expected stopped after Stop")
	}

	if !c.Start() {
		t.Fatal("restart should report true")
	}
	c.Stop()
	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Errorf("loop ran %d times, want 2", runs)
	}
}

// go test -v --run TestControllerWithoutLoop
func TestControllerWithoutLoop(t *testing.T) {
	c := NewController(context.Background(), nil)
	if !c.Start() || !c.Running() {
		t.Fatal("expected running after Start")
	}
	if !c.Stop() || c.Running() {
		t.Fatal("expected stopped after Stop")
	}
}
