package analytics

import (
	"context"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/events"
)

// Subscribe starts a goroutine that folds consensus decisions and workflow
// failures observed on bus into the Collector, the event-driven half of
// analytics collection that complements the direct RecordTaskResult calls a
// runtime makes once it has the full WorkflowResult in hand. The goroutine
// exits when ctx is cancelled or the bus is closed.
func (c *Collector) Subscribe(ctx context.Context, bus *events.EventBus) {
	ch := bus.Subscribe(events.TypeConsensusDecided, events.TypeWorkflowFailed)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				c.handle(evt)
			}
		}
	}()
}

func (c *Collector) handle(evt events.Event) {
	switch e := evt.(type) {
	case events.ConsensusDecidedEvent:
		c.RecordConsensus(&core.Decision{
			TaskId:            core.TaskId(e.TaskID()),
			AgreementRate:     e.AgreementRate,
			ConsensusAchieved: e.ConsensusAchieved,
			Considered:        make([]core.AgentId, e.ConsideredCount),
			DecidedAt:         e.Timestamp(),
		})
	case events.WorkflowFailedEvent:
		c.log.Warn("workflow failure observed", "task_id", e.TaskID(), "step", e.Step, "error", e.Error)
	}
}
