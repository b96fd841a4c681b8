package testutil

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/vk/matchgridgo/internal/registry"
)

// ExecutionRecord is the observed start and end wall time of one step
// execution, written by recording runners and read by ordering assertions.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MatchSimModule registers a "sim_match" runner that stands in for a real
// match: it occupies a worker for a fixed duration and records when each
// instance started and finished. Scheduling tests use the records to assert
// overlap (parallelism) or strict ordering (dependencies).
type MatchSimModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	matchDuration  time.Duration
	completionChan chan<- string
}

// NewMatchSimModule returns a simulator whose matches take the given
// duration. completionChan may be nil when a test only needs the records.
func NewMatchSimModule(completionChan chan<- string, duration time.Duration) *MatchSimModule {
	return &MatchSimModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		matchDuration:  duration,
		completionChan: completionChan,
	}
}

// Register registers the "sim_match" runner's Go handler.
func (m *MatchSimModule) Register(r *registry.Registry) {
	type matchSimInput struct {
		ID string `mggo:"id"`
	}

	r.RegisterRunner("OnRunSimMatch", &registry.RegisteredRunner{
		NewInput:  func() any { return new(matchSimInput) },
		InputType: reflect.TypeOf(matchSimInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(_ context.Context, _ any, inputRaw any) (any, error) {
			input := inputRaw.(*matchSimInput)

			record := &ExecutionRecord{Start: time.Now()}
			time.Sleep(m.matchDuration)
			record.End = time.Now()

			m.mu.Lock()
			m.ExecutionTimes[input.ID] = record
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- input.ID
			}
			return nil, nil
		},
	})
}
