package app

import (
	"github.com/amirasaad/voicepay/pkg/handler/notification"
)

// setupEventBus registers all event handlers with the event bus.
func (a *App) setupEventBus() {
	if a.Deps.EventBus == nil || a.Deps.Sender == nil {
		return
	}
	notification.Register(a.Deps.EventBus, a.Deps.Uow, a.Deps.Sender, a.Deps.Logger)
}
