package schedule

import (
	"context"
	"time"

	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
)

// Watcher keeps a schedule view current. It refreshes on every appointment
// change notification and on a fixed reconciliation interval, because bus
// delivery is at-least-once with no guarantee a busy subscriber saw every
// event. The interval is a correctness contract, not a performance choice.
type Watcher struct {
	bus      interfaces.ChangeBus
	logger   *logger.Logger
	interval time.Duration
	refresh  func()
}

// NewWatcher creates a watcher that invokes refresh on change and on tick.
func NewWatcher(bus interfaces.ChangeBus, log *logger.Logger, interval time.Duration, refresh func()) *Watcher {
	return &Watcher{bus: bus, logger: log, interval: interval, refresh: refresh}
}

// Run blocks until the context is cancelled, firing the refresh callback.
// The initial refresh happens immediately on start.
func (w *Watcher) Run(ctx context.Context) {
	events, cancel := w.bus.Subscribe(workflow.CollectionAppointments)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			w.refresh()
		case <-ticker.C:
			w.refresh()
		}
	}
}
