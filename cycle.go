package trafficlight

import (
	"math/rand"
	"sync"
	"time"
)

// cyclePicker draws cycle durations uniformly from whole units in [min, max]
type cyclePicker struct {
	min  int
	max  int
	unit time.Duration

	mutex sync.Mutex
	rng   *rand.Rand
}

func newCyclePicker(cfg Config, source rand.Source) *cyclePicker {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &cyclePicker{
		min:  cfg.MinCycle,
		max:  cfg.MaxCycle,
		unit: cfg.CycleUnit,
		rng:  rand.New(source),
	}
}

// Next returns a random duration between min and max units, bounds included
func (p *cyclePicker) Next() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	units := p.min + p.rng.Intn(p.max-p.min+1)
	return time.Duration(units) * p.unit
}
