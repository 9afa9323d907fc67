package window

import "sync"

// Manager holds one session's pop-outs, keyed by the peer the thread shows.
// Opening an existing peer restores that window instead of stacking a
// duplicate surface onto the same conversation.
type Manager struct {
	mu       sync.Mutex
	viewport Size
	windows  map[string]*Window
}

func NewManager(viewport Size) *Manager {
	return &Manager{
		viewport: viewport,
		windows:  make(map[string]*Window),
	}
}

func (m *Manager) Open(peerID string) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows[peerID]; ok {
		w.Restore()
		return w
	}
	w := NewWindow(peerID, m.viewport)
	m.windows[peerID] = w
	return w
}

func (m *Manager) Get(peerID string) (*Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[peerID]
	return w, ok
}

func (m *Manager) Close(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.windows[peerID]; ok {
		w.Close()
		delete(m.windows, peerID)
	}
}

// SetViewport re-clamps every open window into the new viewport.
func (m *Manager) SetViewport(viewport Size) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = viewport
	for _, w := range m.windows {
		w.SetViewport(viewport)
	}
}

// OpenPeers lists the conversations currently popped out.
func (m *Manager) OpenPeers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	peers := make([]string, 0, len(m.windows))
	for id := range m.windows {
		peers = append(peers, id)
	}
	return peers
}
