package store

import (
	"slices"
	"sync"
	"time"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Snapshots are keyed by widget name and replaced wholesale on update.
// Updates are sent to subscribers non-blocking; a full buffer drops the event
// for that subscriber only.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	order     []string
	now       func() time.Time

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]*Snapshot),
		subscribers: make(map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Register declares a widget so it is listed (unloaded) before data arrives.
func (m *MemoryStore) Register(name, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(name, kind)
}

// ensure returns the snapshot for name, creating it if needed. Caller holds mu.
func (m *MemoryStore) ensure(name, kind string) *Snapshot {
	snap, ok := m.snapshots[name]
	if !ok {
		snap = &Snapshot{Name: name, Kind: kind}
		m.snapshots[name] = snap
		m.order = append(m.order, name)
	}
	return snap
}

// SetProjects stores a ranked project list and notifies subscribers.
func (m *MemoryStore) SetProjects(name string, projects []ProjectEntry) {
	m.mu.Lock()
	snap := m.ensure(name, KindProjects)
	snap.Loaded = true
	snap.Projects = slices.Clone(projects)
	if snap.Projects == nil {
		snap.Projects = []ProjectEntry{}
	}
	snap.UpdatedAt = m.now()
	cp := snap.clone()
	m.mu.Unlock()

	m.notify(Event{Kind: EventProjects, Widget: name, Snapshot: &cp})
}

// SetUsers stores an active-user list and notifies subscribers.
func (m *MemoryStore) SetUsers(name string, users []ActiveUser) {
	m.mu.Lock()
	snap := m.ensure(name, KindGallery)
	snap.Loaded = true
	snap.Users = slices.Clone(users)
	if snap.Users == nil {
		snap.Users = []ActiveUser{}
	}
	snap.UpdatedAt = m.now()
	cp := snap.clone()
	m.mu.Unlock()

	m.notify(Event{Kind: EventUsers, Widget: name, Snapshot: &cp})
}

// PublishScroll forwards a scroll action to subscribers without storing it.
func (m *MemoryStore) PublishScroll(name string, pos ScrollPosition) {
	m.notify(Event{Kind: EventScroll, Widget: name, Scroll: &pos})
}

// Get returns a copy of the named snapshot.
func (m *MemoryStore) Get(name string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[name]
	if !ok {
		return Snapshot{}, false
	}
	return snap.clone(), true
}

// GetAll returns copies of all snapshots in registration order.
func (m *MemoryStore) GetAll() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Snapshot, 0, len(m.order))
	for _, name := range m.order {
		results = append(results, m.snapshots[name].clone())
	}
	return results
}

// Subscribe creates a subscription with a buffer of 100 events.
//
// Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notify(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

func (s *Snapshot) clone() Snapshot {
	cp := *s
	if s.Projects != nil {
		cp.Projects = slices.Clone(s.Projects)
	}
	if s.Users != nil {
		cp.Users = slices.Clone(s.Users)
	}
	return cp
}
