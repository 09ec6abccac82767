package context

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrBudgetExceeded is returned when the pinned tier alone exceeds the
// requested total budget — a hard failure, not a skip, since pins are
// always supposed to be fully included.
var ErrBudgetExceeded = errors.New("context: pinned tier exceeds total budget")

// Composer assembles a ComposedView from a RollingWindow, PinManager,
// and DependencyDAG under a total token budget.
type Composer struct {
	window  *RollingWindow
	pins    *PinManager
	dag     *DependencyDAG
	tracker *BudgetTracker
}

// NewComposer wires the four composition-state components together.
func NewComposer(window *RollingWindow, pins *PinManager, dag *DependencyDAG, emitter EventEmitter) *Composer {
	return &Composer{window: window, pins: pins, dag: dag, tracker: NewBudgetTracker(emitter)}
}

// Compose assembles the four-tier view for targetAgent under budget.
// Prior must already be ordered by priority (highest first); Compose
// never reorders it, only decides how many fit.
func (c *Composer) Compose(targetAgent string, budget int, prior []PriorSolution) (ComposedView, error) {
	if budget <= 0 {
		return ComposedView{}, ErrInvalidBudget
	}

	compositionID := uuid.NewString()
	if err := c.tracker.Allocate(compositionID, budget); err != nil {
		return ComposedView{}, err
	}
	defer c.tracker.Deallocate(compositionID)

	var view ComposedView
	view.Budget = budget

	// Tier 1: pinned. Always fully included; a pinned total that alone
	// exceeds the budget is a hard failure, never a partial inclusion.
	pins := c.pins.Pins()
	pinnedTokens := 0
	for _, p := range pins {
		pinnedTokens += p.TokenCount
	}
	if pinnedTokens > budget {
		return ComposedView{}, fmt.Errorf("%w: pinned tier needs %d, budget is %d", ErrBudgetExceeded, pinnedTokens, budget)
	}
	if pinnedTokens > 0 {
		if err := c.tracker.Consume(compositionID, pinnedTokens); err != nil {
			return ComposedView{}, err
		}
	}
	for _, p := range pins {
		view.Pinned.AgentIDs = append(view.Pinned.AgentIDs, p.AgentID)
	}
	view.Pinned.TokenTotal = pinnedTokens

	// Tier 2: up to 2 prior-solution hits, in the order given, stopping
	// at the first one the remaining budget can't hold.
	limit := 2
	for i, p := range prior {
		if i >= limit {
			break
		}
		if err := c.tracker.Consume(compositionID, p.TokenCount); err != nil {
			break
		}
		view.PriorSolutions.AgentIDs = append(view.PriorSolutions.AgentIDs, p.AgentID)
		view.PriorSolutions.TokenTotal += p.TokenCount
	}

	// Tier 3: active window entries, dependencies-first when a target
	// agent is given, otherwise insertion order; stop at first miss.
	entries := c.window.Entries()
	if targetAgent != "" {
		entries = c.dag.OrderByDependencies(targetAgent, entries)
	}
	for _, e := range entries {
		if err := c.tracker.Consume(compositionID, e.TokenCount); err != nil {
			break
		}
		view.Active.AgentIDs = append(view.Active.AgentIDs, e.AgentID)
		view.Active.TokenTotal += e.TokenCount
	}

	// Tier 4: archived references only, zero token cost.
	view.Archived.AgentIDs = c.window.ArchivedIDs()
	view.Archived.TokenTotal = 0

	used, err := c.tracker.Used(compositionID)
	if err != nil {
		return ComposedView{}, err
	}
	view.TotalTokens = used
	view.Utilization = float64(used) / float64(budget)
	view.RemainingBudget = budget - used

	return view, nil
}
