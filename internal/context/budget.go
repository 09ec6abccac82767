package context

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

var (
	ErrInvalidBudget   = errors.New("context: invalid budget amount")
	ErrBudgetNotFound  = errors.New("context: budget not allocated for this composition")
	ErrBudgetExhausted = errors.New("context: budget exhausted")
)

// BudgetEvent is implemented by the events a BudgetTracker emits.
type BudgetEvent interface {
	CompositionID() string
}

// BudgetWarningEvent fires the first time a composition's consumption
// crosses 80% of its budget.
type BudgetWarningEvent struct {
	ID          string
	BudgetUsed  int
	BudgetTotal int
	Percentage  float64
}

func (e BudgetWarningEvent) CompositionID() string { return e.ID }

// BudgetExhaustedEvent fires when a Consume call would exceed budget.
type BudgetExhaustedEvent struct {
	ID          string
	BudgetUsed  int
	BudgetTotal int
}

func (e BudgetExhaustedEvent) CompositionID() string { return e.ID }

// EventEmitter routes BudgetTracker events to subscribers.
type EventEmitter interface {
	Emit(event BudgetEvent)
}

// EventEmitterFunc adapts a function to EventEmitter.
type EventEmitterFunc func(BudgetEvent)

func (f EventEmitterFunc) Emit(event BudgetEvent) { f(event) }

type budgetState struct {
	total int64
	used  int64 // accessed atomically for lock-free reads
}

// BudgetTracker tracks token consumption for one composition request at
// a time and emits warning/exhaustion events. Unlike a long-lived
// per-branch tracker, a composition's budget is allocated at the start
// of Composer.Compose and deallocated once that call returns — the
// bookkeeping shape (atomic counters, events emitted after the lock is
// released to avoid reentrant deadlocks) is otherwise unchanged.
type BudgetTracker struct {
	mu      sync.RWMutex
	budgets map[string]*budgetState
	emitter EventEmitter
}

// NewBudgetTracker constructs a tracker that reports to emitter (nil is
// valid — events are simply dropped).
func NewBudgetTracker(emitter EventEmitter) *BudgetTracker {
	return &BudgetTracker{budgets: make(map[string]*budgetState), emitter: emitter}
}

// Allocate initializes budget tracking for a composition id.
func (t *BudgetTracker) Allocate(id string, budget int) error {
	if budget <= 0 {
		return ErrInvalidBudget
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budgets[id] = &budgetState{total: int64(budget)}
	return nil
}

// Consume attempts to account for tokens against id's budget, returning
// ErrBudgetExhausted without mutating state if it would be exceeded.
func (t *BudgetTracker) Consume(id string, tokens int) error {
	var exhaustedEvent *BudgetExhaustedEvent
	var warningEvent *BudgetWarningEvent
	var err error

	func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		state, exists := t.budgets[id]
		if !exists {
			err = ErrBudgetNotFound
			return
		}

		currentUsed := atomic.LoadInt64(&state.used)
		if tokens < 0 || int64(tokens) > math.MaxInt64-currentUsed {
			err = ErrInvalidBudget
			return
		}

		newUsed := currentUsed + int64(tokens)
		if newUsed > state.total {
			exhaustedEvent = &BudgetExhaustedEvent{ID: id, BudgetUsed: int(currentUsed), BudgetTotal: int(state.total)}
			err = ErrBudgetExhausted
			return
		}

		atomic.StoreInt64(&state.used, newUsed)

		percentage := float64(newUsed) / float64(state.total)
		if percentage >= 0.8 {
			prevPercentage := float64(currentUsed) / float64(state.total)
			if prevPercentage < 0.8 {
				warningEvent = &BudgetWarningEvent{ID: id, BudgetUsed: int(newUsed), BudgetTotal: int(state.total), Percentage: percentage}
			}
		}
	}()

	if t.emitter != nil {
		if exhaustedEvent != nil {
			t.emitter.Emit(*exhaustedEvent)
		}
		if warningEvent != nil {
			t.emitter.Emit(*warningEvent)
		}
	}
	return err
}

// Remaining returns the unconsumed budget for id.
func (t *BudgetTracker) Remaining(id string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, exists := t.budgets[id]
	if !exists {
		return 0, ErrBudgetNotFound
	}
	return int(state.total - atomic.LoadInt64(&state.used)), nil
}

// Used returns tokens consumed so far for id.
func (t *BudgetTracker) Used(id string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, exists := t.budgets[id]
	if !exists {
		return 0, ErrBudgetNotFound
	}
	return int(atomic.LoadInt64(&state.used)), nil
}

// Deallocate removes tracking for id once its composition is complete.
func (t *BudgetTracker) Deallocate(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.budgets, id)
}
