package request

import "errors"

// ErrInvalidTransition is returned by UpdateStatus in strict mode when the
// requested jump is not on the allow-list.
var ErrInvalidTransition = errors.New("request: invalid status transition")

// allowedTransitions is the adjacency list enforced when strict transitions
// are enabled. By default the engine leaves UpdateStatus as an unrestricted
// administrative escape hatch, so this table is consulted only behind the
// opt-in flag.
var allowedTransitions = map[StatusName][]StatusName{
	StatusNew:        {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusNew},
	StatusCompleted:  {},
}

func transitionAllowed(from, to StatusName) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
