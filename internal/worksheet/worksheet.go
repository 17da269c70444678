package worksheet

import (
	"fmt"
	"sync"

	"github.com/ray-pH/equaio/internal/expr"
)

type slot struct {
	mu  sync.Mutex
	seq Sequence
}

// Worksheet is an ordered collection of independent sequences sharing one
// expression context and strategy. Each slot is locked on its own; work on
// different slots never contends.
type Worksheet struct {
	ctx      expr.Context
	strategy Strategy

	mu    sync.RWMutex
	slots []*slot
}

func New(ctx expr.Context, strategy Strategy) *Worksheet {
	return &Worksheet{ctx: ctx, strategy: strategy}
}

func (w *Worksheet) Context() expr.Context {
	return w.ctx
}

// Introduce appends a single-line sequence holding e and returns its index.
func (w *Worksheet) Introduce(e expr.Expression) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.slots = append(w.slots, &slot{seq: Introduce(e, w.ctx, w.strategy)})
	return len(w.slots) - 1
}

func (w *Worksheet) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.slots)
}

func (w *Worksheet) slot(i int) (*slot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i < 0 || i >= len(w.slots) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidSequenceIndex, i, len(w.slots))
	}
	return w.slots[i], nil
}

// Get returns an owned copy of sequence i.
func (w *Worksheet) Get(i int) (Sequence, bool) {
	sl, err := w.slot(i)
	if err != nil {
		return Sequence{}, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.seq.Clone(), true
}

// Store replaces sequence i with a copy of seq.
func (w *Worksheet) Store(i int, seq Sequence) error {
	sl, err := w.slot(i)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.seq = seq.Clone()
	return nil
}

// Update runs fn on a copy of sequence i while holding the slot's lock and
// commits the copy when fn succeeds. On error the slot is left untouched.
func (w *Worksheet) Update(i int, fn func(seq *Sequence) error) error {
	sl, err := w.slot(i)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	working := sl.seq.Clone()
	if err := fn(&working); err != nil {
		return err
	}
	sl.seq = working
	return nil
}
