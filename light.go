// Package trafficlight models a red/green traffic light whose phase is toggled by its
// own timer goroutine and observed by callers that block until the light turns green.
//
// Phase changes travel from the timer to waiters through a MessageQueue, a single-slot
// hand-off that keeps only the latest value. A waiter that is slow to come back may
// miss intermediate phases, which is fine because only the newest phase matters.
package trafficlight

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LightState represents the lifecycle of a traffic light
type LightState int

const (
	// Light is constructed but not cycling yet
	LightIdle LightState = iota
	// Light's cycle goroutine has been started
	LightRunning
	// Light has been stopped and cannot be restarted
	LightStopped
)

// String returns the lifecycle state name
func (s LightState) String() string {
	switch s {
	case LightIdle:
		return "idle"
	case LightRunning:
		return "running"
	case LightStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Option configures a TrafficLight
type Option func(*options)

type options struct {
	config    Config
	logger    *zap.Logger
	observers []Observer
	source    rand.Source
}

// WithConfig sets the timing configuration
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers an observer before the light starts
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, observer)
	}
}

// WithRandSource sets the random source used to draw cycle durations
func WithRandSource(source rand.Source) Option {
	return func(o *options) {
		o.source = source
	}
}

// TrafficLight toggles between Red and Green on its own goroutine
type TrafficLight struct {
	id        string
	phase     atomic.Int32
	queue     *MessageQueue[Phase]
	config    Config
	picker    *cyclePicker
	logger    *zap.Logger
	observers *ObserverManager
	workers   workerGroup

	mutex  sync.Mutex
	state  LightState
	cancel context.CancelFunc
	// stopRequested is set by the first Stop call
	stopRequested bool
	// notifying is true while the cycle goroutine is inside an observer callback
	notifying atomic.Bool
	// done is closed when the cycle goroutine exits
	done chan struct{}
}

// NewTrafficLight creates a red traffic light. It does not start cycling until Simulate
// or Start is called.
func NewTrafficLight(opts ...Option) (*TrafficLight, error) {
	o := options{
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	tl := &TrafficLight{
		id:        uuid.New().String(),
		queue:     NewMessageQueue[Phase](),
		config:    o.config,
		picker:    newCyclePicker(o.config, o.source),
		logger:    o.logger,
		observers: NewObserverManager(),
		state:     LightIdle,
		done:      make(chan struct{}),
	}
	tl.phase.Store(int32(Red))
	for _, observer := range o.observers {
		tl.observers.AddObserver(observer)
	}
	return tl, nil
}

// ID returns the unique identifier of the light
func (tl *TrafficLight) ID() string {
	return tl.id
}

// Config returns the timing configuration
func (tl *TrafficLight) Config() Config {
	return tl.config
}

// CurrentPhase returns the phase the light currently shows. It never blocks.
func (tl *TrafficLight) CurrentPhase() Phase {
	return Phase(tl.phase.Load())
}

// InitialPhase returns the phase every light starts in
func (tl *TrafficLight) InitialPhase() Phase {
	return Red
}

// Transitions returns the phase transition table the light cycles through
func (tl *TrafficLight) Transitions() []Transition {
	return Transitions()
}

// State returns the lifecycle state
func (tl *TrafficLight) State() LightState {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()
	return tl.state
}

// Running reports whether the cycle goroutine is still alive
func (tl *TrafficLight) Running() bool {
	return len(tl.workers.Running()) > 0
}

// AddObserver registers an observer
func (tl *TrafficLight) AddObserver(observer Observer) {
	tl.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (tl *TrafficLight) RemoveObserver(observer Observer) {
	tl.observers.RemoveObserver(observer)
}

// Simulate starts the cycle goroutine. It runs until Stop is called.
func (tl *TrafficLight) Simulate() error {
	return tl.start(context.Background(), "Simulate")
}

// Start starts the cycle goroutine, which also ends when ctx is done
func (tl *TrafficLight) Start(ctx context.Context) error {
	return tl.start(ctx, "Start")
}

func (tl *TrafficLight) start(ctx context.Context, operation string) error {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	switch tl.state {
	case LightRunning:
		return NewAlreadyStartedError(operation)
	case LightStopped:
		return NewStoppedError(operation)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	tl.cancel = cancel
	tl.state = LightRunning

	tl.logger.Info("traffic light started",
		zap.String("light", tl.id),
		zap.Stringer("phase", tl.CurrentPhase()),
		zap.Stringer("policy", tl.config.Policy),
		zap.Duration("min_cycle", tl.config.MinDuration()),
		zap.Duration("max_cycle", tl.config.MaxDuration()),
	)

	tl.workers.Go("cycleThroughPhases", func() {
		tl.cycleThroughPhases(loopCtx)
	})
	return nil
}

// Stop ends the cycle goroutine and waits for it to exit. Callers blocked in
// WaitForGreenContext are released with an ErrCodeStopped error.
//
// Called from an observer callback, Stop only cancels the loop: the callback runs on the
// cycle goroutine, which exits once the callback returns.
func (tl *TrafficLight) Stop() error {
	tl.mutex.Lock()
	if tl.state == LightIdle {
		tl.mutex.Unlock()
		return NewNotStartedError("Stop")
	}
	if tl.stopRequested {
		tl.mutex.Unlock()
		return NewStoppedError("Stop")
	}
	tl.state = LightStopped
	tl.stopRequested = true
	cancel := tl.cancel
	tl.mutex.Unlock()

	cancel()
	if tl.notifying.Load() {
		return nil
	}
	tl.workers.Wait()
	return nil
}

// WaitForGreen blocks until the light is observed turning green. It blocks forever if
// the light never cycles; use WaitForGreenContext to bound the wait.
func (tl *TrafficLight) WaitForGreen() {
	for {
		time.Sleep(tl.config.WaitPollInterval)
		if tl.queue.Receive() == Green {
			return
		}
	}
}

// WaitForGreenContext blocks until the light is observed turning green, ctx is done,
// or the light stops cycling.
func (tl *TrafficLight) WaitForGreenContext(ctx context.Context) error {
	select {
	case <-tl.done:
		return NewStoppedError("WaitForGreen")
	default:
	}

	waitCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		select {
		case <-tl.done:
			cancel(NewStoppedError("WaitForGreen"))
		case <-waitCtx.Done():
		}
	}()

	ticker := time.NewTicker(tl.config.WaitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return context.Cause(waitCtx)
		case <-ticker.C:
		}

		phase, err := tl.queue.ReceiveContext(waitCtx)
		if err != nil {
			return context.Cause(waitCtx)
		}
		if phase == Green {
			return nil
		}
	}
}

// cycleThroughPhases toggles the phase every time the drawn cycle duration has elapsed
// and hands the new phase to waiters. It only returns when ctx is done.
func (tl *TrafficLight) cycleThroughPhases(ctx context.Context) {
	var cycle uint64

	defer close(tl.done)
	defer func() {
		tl.mutex.Lock()
		tl.state = LightStopped
		tl.mutex.Unlock()

		tl.logger.Info("traffic light stopped",
			zap.String("light", tl.id),
			zap.Stringer("phase", tl.CurrentPhase()),
			zap.Uint64("cycles", cycle),
		)
		tl.notify(func() { tl.observers.NotifyStopped(tl.id) })
	}()

	tl.notify(func() { tl.observers.NotifyStarted(tl.id) })

	ticker := time.NewTicker(tl.config.PollInterval)
	defer ticker.Stop()

	cycleDuration := tl.picker.Next()
	lastToggle := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		elapsed := time.Since(lastToggle)
		if elapsed < cycleDuration {
			continue
		}

		previous := tl.CurrentPhase()
		current := previous.Next()
		tl.phase.Store(int32(current))
		tl.queue.Send(current)
		lastToggle = time.Now()
		cycle++

		tl.logger.Debug("phase changed",
			zap.String("light", tl.id),
			zap.Stringer("from", previous),
			zap.Stringer("to", current),
			zap.Uint64("cycle", cycle),
			zap.Duration("elapsed", elapsed),
		)
		event := NewPhaseEvent(tl.id, previous, current, cycle, elapsed, cycleDuration)
		tl.notify(func() { tl.observers.NotifyPhaseChange(event) })

		if tl.config.Policy == CyclePerToggle {
			cycleDuration = tl.picker.Next()
		}
	}
}

// notify runs an observer fan-out with the notifying flag set. Only the cycle goroutine
// calls it.
func (tl *TrafficLight) notify(fn func()) {
	tl.notifying.Store(true)
	defer tl.notifying.Store(false)
	fn()
}
