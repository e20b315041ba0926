package signals

import "github.com/johndauphine/pgext/internal/driver"

// ConnectionEvent is sent when a new physical connection is established.
type ConnectionEvent struct {
	Conn driver.Conn
}

// ExtensionEvent is sent after a database extension was created or dropped
// through Conn.
type ExtensionEvent struct {
	Conn driver.Conn
	Name string
}

var (
	// ConnectionCreated fires once per new connection, before first use.
	ConnectionCreated = New[ConnectionEvent]("connection_created")

	// ExtensionCreated fires after CREATE EXTENSION.
	ExtensionCreated = New[ExtensionEvent]("extension_created")

	// ExtensionRemoved fires after DROP EXTENSION.
	ExtensionRemoved = New[ExtensionEvent]("extension_removed")
)
