package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// Factory builds the client for one organization.
type Factory func(orgID string) (*Client, error)

// Manager keeps at most one running stream per organization.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	factory Factory
	logger  *slog.Logger
}

func NewManager(factory Factory, logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		factory: factory,
		logger:  logger,
	}
}

// Register connects a stream for orgID, or returns the existing one.
func (m *Manager) Register(ctx context.Context, orgID string) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[orgID]; ok {
		return c, nil
	}
	c, err := m.factory(orgID)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	m.clients[orgID] = c
	m.logger.Debug("stream registered", "organization_id", orgID)
	return c, nil
}

// Unregister disconnects and forgets the stream for orgID.
func (m *Manager) Unregister(orgID string) {
	m.mu.Lock()
	c, ok := m.clients[orgID]
	delete(m.clients, orgID)
	m.mu.Unlock()

	if ok {
		c.Disconnect()
	}
}

func (m *Manager) Get(orgID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[orgID]
	return c, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Statuses returns the connection status of every registered stream.
func (m *Manager) Statuses() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Status, len(m.clients))
	for id, c := range m.clients {
		out[id] = c.Status()
	}
	return out
}

// CloseAll disconnects every stream concurrently and waits for them.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Disconnect()
		}()
	}
	wg.Wait()
}
