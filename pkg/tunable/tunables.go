// Package tunable holds named parameters that can be nudged while the
// simulator is running.
package tunable

import (
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type Tunable struct {
	Name string
	Step float64

	bits   uint64
	logger *zap.SugaredLogger
}

// Add moves the value by steps * Step and returns the new value.
func (t *Tunable) Add(steps int) float64 {
	for {
		old := atomic.LoadUint64(&t.bits)
		newV := math.Float64frombits(old) + float64(steps)*t.Step
		if atomic.CompareAndSwapUint64(&t.bits, old, math.Float64bits(newV)) {
			t.logger.Infow("tunable changed", "name", t.Name, "value", newV)
			return newV
		}
	}
}

func (t *Tunable) Get() float64 {
	return math.Float64frombits(atomic.LoadUint64(&t.bits))
}

func (t *Tunable) Set(v float64) {
	atomic.StoreUint64(&t.bits, math.Float64bits(v))
}

type Tunables struct {
	mu       sync.Mutex
	all      []*Tunable
	selected int
	logger   *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Tunables {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Tunables{logger: logger}
}

func (t *Tunables) Create(name string, value, step float64) *Tunable {
	t.mu.Lock()
	defer t.mu.Unlock()
	newTunable := &Tunable{
		Name:   name,
		Step:   step,
		bits:   math.Float64bits(value),
		logger: t.logger,
	}
	t.all = append(t.all, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() *Tunable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.all) == 0 {
		return nil
	}
	t.selected++
	if t.selected >= len(t.all) {
		t.selected = 0
	}
	return t.logSelected()
}

func (t *Tunables) SelectPrev() *Tunable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.all) == 0 {
		return nil
	}
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.all) - 1
	}
	return t.logSelected()
}

// Current returns the selected tunable, or nil if there are none.
func (t *Tunables) Current() *Tunable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.all) == 0 {
		return nil
	}
	return t.all[t.selected]
}

func (t *Tunables) All() []*Tunable {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Tunable(nil), t.all...)
}

func (t *Tunables) logSelected() *Tunable {
	cur := t.all[t.selected]
	t.logger.Infow("tunable selected", "name", cur.Name, "value", cur.Get())
	return cur
}
