// Package workflow selects which agent workflow adapter should handle an
// incoming task description. Adapters are pure, stateless scorers: given a
// task they report how confident they are that they can handle it and
// which agents they would run, and the registry picks the best match.
package workflow

// TaskDescription is the input an adapter scores against.
type TaskDescription struct {
	Text   string
	Labels []string
}

// Adapter scores its own fit for a task and names the agents it would run.
// Implementations must be side-effect free: Score and Agents are called
// during selection, before any agent actually runs.
type Adapter interface {
	// Name identifies the adapter in logs and Select's return value.
	Name() string
	// Score returns a match probability in [0, 1]. Scores outside that
	// range are clamped by the registry rather than rejected, since a
	// buggy adapter should degrade selection quality, not break it.
	Score(task TaskDescription) float64
	// Agents lists the agents this adapter would run for the task.
	Agents(task TaskDescription) []string
}

// Match is the outcome of a Select call.
type Match struct {
	Adapter Adapter
	Score   float64
	Agents  []string
}
