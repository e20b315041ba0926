package pgtypes

import (
	"context"

	"github.com/johndauphine/pgext/internal/signals"
)

// Dispatch ids under which App connects its receivers.
const (
	RegisterTypeHandlersID = "pgtypes.register_type_handlers"
	ExtensionCreatedID     = "pgtypes.extension_created_handlers"
	ExtensionRemovedID     = "pgtypes.extension_removed_handlers"
)

// App wires a Handler to the connection and extension signals. Receivers
// are live between Ready and Unload only.
type App struct {
	handler *Handler
}

// NewApp creates an app around h. A nil h gets a handler with a fresh cache.
func NewApp(h *Handler) *App {
	if h == nil {
		h = NewHandler(nil)
	}
	return &App{handler: h}
}

// Handler returns the app's handler.
func (a *App) Handler() *Handler {
	return a.handler
}

// Ready connects the receivers. Calling it again is a no-op.
func (a *App) Ready() {
	signals.ConnectionCreated.Connect(RegisterTypeHandlersID, func(ctx context.Context, ev signals.ConnectionEvent) error {
		return a.handler.RegisterTypeHandlers(ctx, ev.Conn)
	})
	signals.ExtensionCreated.Connect(ExtensionCreatedID, func(ctx context.Context, ev signals.ExtensionEvent) error {
		return a.handler.ExtensionCreated(ctx, ev.Conn, ev.Name)
	})
	signals.ExtensionRemoved.Connect(ExtensionRemovedID, func(ctx context.Context, ev signals.ExtensionEvent) error {
		return a.handler.ExtensionRemoved(ctx, ev.Conn, ev.Name)
	})
}

// Unload disconnects the receivers.
func (a *App) Unload() {
	signals.ConnectionCreated.Disconnect(RegisterTypeHandlersID)
	signals.ExtensionCreated.Disconnect(ExtensionCreatedID)
	signals.ExtensionRemoved.Disconnect(ExtensionRemovedID)
}
