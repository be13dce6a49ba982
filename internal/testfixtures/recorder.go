package testfixtures

import (
	"sync"
	"time"
)

// Observation is one recorded service call.
type Observation struct {
	Service   string
	Operation string
	Outcome   string
}

// Recorder captures service call observations in memory.
type Recorder struct {
	mu           sync.Mutex
	observations []Observation
}

// ObserveOperation implements application.OperationRecorder.
func (r *Recorder) ObserveOperation(service, operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.observations = append(r.observations, Observation{Service: service, Operation: operation, Outcome: outcome})
	r.mu.Unlock()
}

// Observations returns a copy of everything recorded so far.
func (r *Recorder) Observations() []Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Observation(nil), r.observations...)
}

// Last returns the most recent observation.
func (r *Recorder) Last() (Observation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.observations) == 0 {
		return Observation{}, false
	}
	return r.observations[len(r.observations)-1], true
}
