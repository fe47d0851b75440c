package coordinator

import "sync"

// Collection names one of the two cached collections.
type Collection string

const (
	Cameras Collection = "cameras"
	Doors   Collection = "doors"
)

// State is the lifecycle position of one collection.
type State int

const (
	// StateEmpty: no snapshot in memory.
	StateEmpty State = iota
	// StateLoading: no snapshot yet, remote fetch in flight.
	StateLoading
	// StateReady: a snapshot is available.
	StateReady
	// StateRefreshing: a snapshot is available and a newer one is being fetched.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// slot holds the in-memory state of one collection. Snapshots stored in a
// slot are never mutated; updates swap in a new value.
//
// write is held across a cache write and the matching in-memory swap so the
// cache and the snapshot change together.
type slot[T any] struct {
	write sync.Mutex
	state State
	snap  *T
}

// settle returns the slot to its resting state after a fetch.
func (s *slot[T]) settle() {
	if s.snap != nil {
		s.state = StateReady
	} else {
		s.state = StateEmpty
	}
}
