package store

import "time"

// Widget kinds.
const (
	KindProjects = "projects"
	KindGallery  = "gallery"
)

// Event kinds streamed to subscribers.
const (
	EventProjects = "projects"
	EventUsers    = "users"
	EventScroll   = "scroll"
)

// ProjectEntry is the storage representation of one ranked project.
type ProjectEntry struct {
	Project    string `json:"project"`
	UserCount  int    `json:"user_count"`
	Percentage string `json:"percentage"`
}

// ActiveUser is the storage representation of one user on campus.
type ActiveUser struct {
	Image string `json:"image"`
	Login string `json:"login"`
}

// ScrollPosition is the latest scroll instruction for a gallery widget.
type ScrollPosition struct {
	Top     int  `json:"top"`
	Instant bool `json:"instant"`
}

// Snapshot is the latest published state of a single widget.
//
// Loaded is false until the first successful poll; presenters render a
// placeholder in that case.
type Snapshot struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Loaded    bool           `json:"loaded"`
	Projects  []ProjectEntry `json:"projects,omitempty"`
	Users     []ActiveUser   `json:"users,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Event is a single update delivered to subscribers (e.g. over SSE).
type Event struct {
	Kind     string          `json:"kind"`
	Widget   string          `json:"widget"`
	Snapshot *Snapshot       `json:"snapshot,omitempty"`
	Scroll   *ScrollPosition `json:"scroll,omitempty"`
}

// Store keeps widget snapshots and fans out updates.
//
// Implementations must be safe for concurrent access. Subscribers receive
// events on buffered channels; slow consumers may miss updates.
type Store interface {
	// Register declares a widget so it is listed before any data arrives.
	// Registering an existing name is a no-op.
	Register(name, kind string)

	// SetProjects replaces the ranked projects of a widget and notifies subscribers.
	SetProjects(name string, projects []ProjectEntry)

	// SetUsers replaces the active users of a widget and notifies subscribers.
	SetUsers(name string, users []ActiveUser)

	// PublishScroll notifies subscribers of a scroll action. Scroll positions
	// are transient and not part of the snapshot.
	PublishScroll(name string, pos ScrollPosition)

	// Get returns a copy of a widget's snapshot.
	Get(name string) (Snapshot, bool)

	// GetAll returns copies of all snapshots in registration order.
	GetAll() []Snapshot

	// Subscribe returns a channel that receives events.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
