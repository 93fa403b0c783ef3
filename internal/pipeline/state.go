package pipeline

// State is a step of a pipeline run.
type State string

const (
	StateStart            State = "start"
	StateInputValidated   State = "input_validated"
	StatePlatformResolved State = "platform_resolved"
	StateCacheHit         State = "cache_hit"
	StateCacheMiss        State = "cache_miss"
	StateFetched          State = "fetched"
	StateNormalized       State = "normalized"
	StateScored           State = "scored"
	StatePresented        State = "presented"
	StateCached           State = "cached"
	StateDone             State = "done"
	StateError            State = "error"
)

// TransitionFunc observes state changes of a run. It is called synchronously
// and must not block.
type TransitionFunc func(from, to State)
