package connection

// Manager tracks the gateway the CLI talks to and the credential it
// authenticates with.
type Manager struct {
	current *Connection
}

// Connection describes one gateway endpoint.
type Connection struct {
	Server     string
	Credential string
}

// NewManager creates a new connection manager.
func NewManager() *Manager {
	return &Manager{}
}

// Connect sets the current gateway.
func (m *Manager) Connect(conn *Connection) {
	m.current = conn
}

// Disconnect clears the current gateway.
func (m *Manager) Disconnect() {
	m.current = nil
}

// Current returns the current connection, nil when disconnected.
func (m *Manager) Current() *Connection {
	return m.current
}

// IsConnected reports whether a gateway is configured.
func (m *Manager) IsConnected() bool {
	return m.current != nil
}

// Client builds an HTTP client for the current connection.
func (m *Manager) Client() *HTTPClient {
	if m.current == nil {
		return nil
	}
	return NewHTTPClient(m.current.Server, m.current.Credential)
}
