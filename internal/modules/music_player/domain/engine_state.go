package domain

// EngineState is the state of a playback engine.
type EngineState int

const (
	// EngineIdle means nothing is loaded.
	EngineIdle EngineState = iota
	// EnginePlaying means a resource is streaming.
	EnginePlaying
	// EnginePaused means a resource is loaded but paused.
	EnginePaused
)

// String returns the string representation of the state.
func (s EngineState) String() string {
	switch s {
	case EnginePlaying:
		return "playing"
	case EnginePaused:
		return "paused"
	default:
		return "idle"
	}
}

// IsActive reports whether a resource is loaded.
func (s EngineState) IsActive() bool {
	return s != EngineIdle
}

// ConnectionState is the state of a voice transport connection.
type ConnectionState int

const (
	// ConnectionConnecting means the join was requested but not confirmed.
	ConnectionConnecting ConnectionState = iota
	// ConnectionReady means the voice channel is joined.
	ConnectionReady
	// ConnectionDestroyed means the connection was torn down. It is terminal.
	ConnectionDestroyed
)

// String returns the string representation of the state.
func (s ConnectionState) String() string {
	switch s {
	case ConnectionConnecting:
		return "connecting"
	case ConnectionReady:
		return "ready"
	default:
		return "destroyed"
	}
}
