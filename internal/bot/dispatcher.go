package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/awfukui/glotbot/internal/platform"
)

// Dispatcher fans inbound events out to the orchestrator, one goroutine per
// event. Events are independent snapshots, so no cross-event ordering is
// needed; failures in one handler never affect another.
type Dispatcher struct {
	orchestrator *Orchestrator
}

func NewDispatcher(orchestrator *Orchestrator) *Dispatcher {
	return &Dispatcher{orchestrator: orchestrator}
}

// Run consumes events until the context is done or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan platform.Event) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.dispatch(ctx, event)
			}()
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event platform.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("Recovered from panic in event handler", "panic", r)
		}
	}()

	switch e := event.(type) {
	case platform.MessageCreateEvent:
		// Other bots never get command handling or a trigger reaction.
		if e.Message.AuthorIsBot {
			return
		}
		if d.orchestrator.IsCommand(e.Message.Content) {
			d.orchestrator.HandleCommand(ctx, e)
			return
		}
		d.orchestrator.HandleMessageCreate(ctx, e)
	case platform.ReactionAddEvent:
		d.orchestrator.HandleReactionAdd(ctx, e)
	default:
		slog.Default().Debug("Ignoring unknown event type")
	}
}
