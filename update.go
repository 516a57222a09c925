package campuspulse

import "time"

// ProjectsUpdate is delivered to projects callbacks after a successful poll
// has been ranked and published.
//
// ProjectsUpdate owns its slice; callbacks may keep or modify it.
type ProjectsUpdate struct {
	// Widget is the name of the projects widget that was polled.
	Widget string

	// Projects is the ranked list now shown by the widget.
	Projects []ProjectEntry

	// UpdatedAt is when the list was published.
	UpdatedAt time.Time
}

// UsersUpdate is delivered to users callbacks after a successful poll of a
// gallery widget has been published.
type UsersUpdate struct {
	// Widget is the name of the gallery widget that was polled.
	Widget string

	// Users is the active-user list in backend order.
	Users []ActiveUser

	// UpdatedAt is when the list was published.
	UpdatedAt time.Time
}
