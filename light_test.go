package trafficlight

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTrafficLight_NewLight(t *testing.T) {
	light, err := NewTrafficLight()
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}

	AssertPhase(t, light, Red)

	if light.ID() == "" {
		t.Error("Expected light to have an ID")
	}
	if light.State() != LightIdle {
		t.Errorf("Expected state idle, got %s", light.State())
	}
	if light.Running() {
		t.Error("Expected light not to be running before Simulate")
	}
	if light.Config() != DefaultConfig() {
		t.Errorf("Expected default config, got %+v", light.Config())
	}

	other, _ := NewTrafficLight()
	if other.ID() == light.ID() {
		t.Error("Expected distinct IDs for distinct lights")
	}
}

func TestTrafficLight_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCycle = 2

	light, err := NewTrafficLight(WithConfig(cfg))
	if light != nil {
		t.Error("Expected no light for an invalid config")
	}
	if !IsConfigurationError(err) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	AssertErrorCode(t, err, ErrCodeInvalidConfiguration)
}

func TestTrafficLight_PhasesAlternate(t *testing.T) {
	light, obs := CreateTestLight(t, 5*time.Millisecond)
	StopOnCleanup(t, light)

	if err := light.Simulate(); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !obs.WaitForEvents(6, 5*time.Second) {
		t.Fatalf("Expected 6 toggles, got %d", obs.EventCount())
	}
	if err := light.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := obs.EventsSnapshot()
	AssertAlternating(t, events)

	first := events[0]
	if first.Previous != Red || first.Current != Green {
		t.Errorf("Expected first toggle red -> green, got %s -> %s", first.Previous, first.Current)
	}
	for i, event := range events {
		if event.Cycle != uint64(i+1) {
			t.Errorf("Expected event %d to have cycle %d, got %d", i, i+1, event.Cycle)
		}
		if event.LightID != light.ID() {
			t.Errorf("Expected light ID %s, got %s", light.ID(), event.LightID)
		}
		if event.ID == "" {
			t.Errorf("Expected event %d to have an ID", i)
		}
	}

	AssertPhase(t, light, events[len(events)-1].Current)
}

func TestTrafficLight_CycleBounds(t *testing.T) {
	cfg := FastConfig(50 * time.Millisecond)
	cfg.Policy = CyclePerToggle
	obs := NewTestObserver()

	light, err := NewTrafficLight(WithConfig(cfg), WithObserver(obs))
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}
	StopOnCleanup(t, light)

	if err := light.Simulate(); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !obs.WaitForEvents(6, 5*time.Second) {
		t.Fatalf("Expected 6 toggles, got %d", obs.EventCount())
	}
	_ = light.Stop()

	tolerance := cfg.CycleUnit / 2
	events := obs.EventsSnapshot()
	AssertCycleBounds(t, events, cfg, tolerance)

	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp)
		if gap < cfg.MinDuration()-tolerance || gap > cfg.MaxDuration()+tolerance {
			t.Errorf("Gap between toggles %d and %d is %s, outside [%s, %s]", i-1, i, gap, cfg.MinDuration(), cfg.MaxDuration())
		}
	}
}

func TestTrafficLight_PerRunPolicyKeepsDuration(t *testing.T) {
	light, obs := CreateTestLight(t, 5*time.Millisecond)
	StopOnCleanup(t, light)

	_ = light.Simulate()
	if !obs.WaitForEvents(4, 5*time.Second) {
		t.Fatalf("Expected 4 toggles, got %d", obs.EventCount())
	}
	_ = light.Stop()

	events := obs.EventsSnapshot()
	for _, event := range events[1:] {
		if event.CycleDuration != events[0].CycleDuration {
			t.Errorf("Expected fixed cycle duration %s, got %s", events[0].CycleDuration, event.CycleDuration)
		}
	}
}

func TestTrafficLight_WaitForGreen(t *testing.T) {
	cfg := FastConfig(10 * time.Millisecond)
	light, err := NewTrafficLight(WithConfig(cfg))
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}
	StopOnCleanup(t, light)

	_ = light.Simulate()

	for i := 0; i < 3; i++ {
		done := make(chan Phase, 1)
		go func() {
			light.WaitForGreen()
			done <- light.CurrentPhase()
		}()

		select {
		case phase := <-done:
			if phase != Green {
				t.Errorf("Expected green right after WaitForGreen, got %s", phase)
			}
		case <-time.After(2*cfg.MaxDuration() + time.Second):
			t.Fatal("WaitForGreen did not return within two cycles")
		}
	}
}

func TestTrafficLight_WaitForGreenContext(t *testing.T) {
	t.Run("returns on green", func(t *testing.T) {
		cfg := FastConfig(10 * time.Millisecond)
		light, _ := NewTrafficLight(WithConfig(cfg))
		StopOnCleanup(t, light)
		_ = light.Simulate()

		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.MaxDuration()+time.Second)
		defer cancel()

		if err := light.WaitForGreenContext(ctx); err != nil {
			t.Fatalf("Expected green, got %v", err)
		}
		AssertPhase(t, light, Green)
	})

	t.Run("honours deadline when never simulated", func(t *testing.T) {
		light, _ := NewTrafficLight()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := light.WaitForGreenContext(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Expected deadline exceeded, got %v", err)
		}
	})

	t.Run("released by Stop", func(t *testing.T) {
		light, _ := NewTrafficLight()
		_ = light.Simulate()

		errs := make(chan error, 1)
		go func() {
			errs <- light.WaitForGreenContext(context.Background())
		}()

		time.Sleep(20 * time.Millisecond)
		if err := light.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}

		select {
		case err := <-errs:
			AssertErrorCode(t, err, ErrCodeStopped)
		case <-time.After(time.Second):
			t.Fatal("Stop did not release the waiter")
		}

		AssertErrorCode(t, light.WaitForGreenContext(context.Background()), ErrCodeStopped)
	})
}

func TestTrafficLight_ConcurrentWaiters(t *testing.T) {
	const waiters = 4
	require := require.New(t)

	cfg := FastConfig(5 * time.Millisecond)
	light, err := NewTrafficLight(WithConfig(cfg))
	require.NoError(err)
	StopOnCleanup(t, light)
	require.NoError(light.Simulate())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var returned atomic.Int32
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := light.WaitForGreenContext(ctx); err != nil {
				errs <- err
				return
			}
			returned.Add(1)
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}
	require.Equal(int32(waiters), returned.Load())
}

func TestTrafficLight_ConcurrentBlockingWaiters(t *testing.T) {
	const waiters = 3

	light, _ := CreateTestLight(t, 5*time.Millisecond)
	StopOnCleanup(t, light)
	_ = light.Simulate()

	done := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			light.WaitForGreen()
			done <- struct{}{}
		}()
	}

	timeout := time.After(10 * time.Second)
	for i := 0; i < waiters; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatalf("Only %d of %d waiters returned", i, waiters)
		}
	}
}

func TestTrafficLight_Lifecycle(t *testing.T) {
	light, obs := CreateTestLight(t, 5*time.Millisecond)

	AssertErrorCode(t, light.Stop(), ErrCodeNotStarted)

	if err := light.Simulate(); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if light.State() != LightRunning {
		t.Errorf("Expected state running, got %s", light.State())
	}

	err := light.Simulate()
	AssertErrorCode(t, err, ErrCodeAlreadyStarted)
	if !IsControllerError(err) {
		t.Errorf("Expected controller error, got %T", err)
	}
	AssertErrorCode(t, light.Start(context.Background()), ErrCodeAlreadyStarted)

	if running := light.workers.Running(); len(running) != 1 {
		t.Errorf("Expected exactly one cycle goroutine, got %v", running)
	}

	if err := light.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if light.Running() {
		t.Error("Expected cycle goroutine to be joined by Stop")
	}
	if light.State() != LightStopped {
		t.Errorf("Expected state stopped, got %s", light.State())
	}
	if obs.StartedCount() != 1 || obs.StoppedCount() != 1 {
		t.Errorf("Expected one start and one stop notification, got %d and %d", obs.StartedCount(), obs.StoppedCount())
	}

	AssertErrorCode(t, light.Stop(), ErrCodeStopped)
	AssertErrorCode(t, light.Simulate(), ErrCodeStopped)
}

func TestTrafficLight_StartContextCancel(t *testing.T) {
	light, obs := CreateTestLight(t, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := light.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(time.Second)
	for light.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if light.Running() {
		t.Fatal("Expected cycle goroutine to exit when its context is cancelled")
	}
	if obs.StoppedCount() != 1 {
		t.Errorf("Expected one stop notification, got %d", obs.StoppedCount())
	}
	if light.State() != LightStopped {
		t.Errorf("Expected state stopped after context cancellation, got %s", light.State())
	}
	AssertErrorCode(t, light.Simulate(), ErrCodeStopped)

	if err := light.Stop(); err != nil {
		t.Errorf("Expected Stop to succeed after context cancellation, got %v", err)
	}
	AssertErrorCode(t, light.Stop(), ErrCodeStopped)
}

// stoppingObserver stops the light from inside its first phase change
type stoppingObserver struct {
	BaseObserver
	light *TrafficLight
	once  sync.Once
	err   chan error
}

func (o *stoppingObserver) OnPhaseChange(event PhaseEvent) {
	o.once.Do(func() {
		o.err <- o.light.Stop()
	})
}

func TestTrafficLight_StopFromObserver(t *testing.T) {
	light, err := NewTrafficLight(WithConfig(FastConfig(2 * time.Millisecond)))
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}
	obs := &stoppingObserver{light: light, err: make(chan error, 1)}
	light.AddObserver(obs)

	if err := light.Simulate(); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	select {
	case err := <-obs.err:
		if err != nil {
			t.Fatalf("Expected Stop from an observer to succeed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Observer was never notified")
	}

	select {
	case <-light.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Cycle goroutine never exited; Running()=%v State=%s", light.Running(), light.State())
	}

	deadline := time.Now().Add(time.Second)
	for light.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if light.Running() {
		t.Error("Expected Running to be false once the cycle goroutine exited")
	}
	if light.State() != LightStopped {
		t.Errorf("Expected state stopped, got %s", light.State())
	}
	AssertErrorCode(t, light.Stop(), ErrCodeStopped)
}

func TestTrafficLight_ConcurrentPhaseReads(t *testing.T) {
	light, obs := CreateTestLight(t, 2*time.Millisecond)
	StopOnCleanup(t, light)
	_ = light.Simulate()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if phase := light.CurrentPhase(); !phase.IsValid() {
					t.Errorf("Read invalid phase %d", phase)
					return
				}
			}
		}()
	}

	obs.WaitForEvents(4, 5*time.Second)
	close(stop)
	wg.Wait()
}

type panickingObserver struct {
	BaseObserver
	errors atomic.Int32
}

func (o *panickingObserver) OnPhaseChange(event PhaseEvent) {
	panic("observer failure")
}

func (o *panickingObserver) OnError(err error) {
	o.errors.Add(1)
}

func TestTrafficLight_ObserverPanicDoesNotStopCycle(t *testing.T) {
	bad := &panickingObserver{}
	good := NewTestObserver()

	light, err := NewTrafficLight(
		WithConfig(FastConfig(2*time.Millisecond)),
		WithObserver(bad),
		WithObserver(good),
	)
	if err != nil {
		t.Fatalf("Failed to create traffic light: %v", err)
	}
	StopOnCleanup(t, light)

	_ = light.Simulate()
	if !good.WaitForEvents(3, 5*time.Second) {
		t.Fatalf("Expected cycling to continue past panicking observer, got %d events", good.EventCount())
	}
	_ = light.Stop()

	if bad.errors.Load() < 3 {
		t.Errorf("Expected panics to be reported through OnError, got %d", bad.errors.Load())
	}
}

func TestTrafficLight_Logging(t *testing.T) {
	require := require.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	obs := NewTestObserver()
	light, err := NewTrafficLight(
		WithConfig(FastConfig(2*time.Millisecond)),
		WithLogger(zap.New(core)),
		WithObserver(obs),
		WithRandSource(rand.NewSource(1)),
	)
	require.NoError(err)

	require.NoError(light.Simulate())
	require.True(obs.WaitForEvents(2, 5*time.Second))
	require.NoError(light.Stop())

	require.Equal(1, logs.FilterMessage("traffic light started").Len())
	require.Equal(1, logs.FilterMessage("traffic light stopped").Len())

	changes := logs.FilterMessage("phase changed").All()
	require.GreaterOrEqual(len(changes), 2)
	fields := changes[0].ContextMap()
	require.Equal(light.ID(), fields["light"])
	require.Equal("red", fields["from"])
	require.Equal("green", fields["to"])
}
