package render

import (
	"errors"

	"github.com/jpalmerr/campuspulse/internal/store"
)

const (
	// DefaultGalleryColumns is the number of users per gallery row.
	DefaultGalleryColumns = 5

	// DefaultRowPitch is the height of one gallery row in pixels: a 40px
	// avatar, the login line and the grid gap.
	DefaultRowPitch = 76

	// DefaultGalleryTitle heads the gallery card.
	DefaultGalleryTitle = "Current Active Users"

	skeletonRows = 3
)

// GalleryLayout controls the user grid.
type GalleryLayout struct {
	Columns  int
	RowPitch int
}

// Validate reports whether the layout can be rendered.
func (l GalleryLayout) Validate() error {
	if l.Columns <= 0 {
		return errors.New("gallery columns must be positive")
	}
	if l.RowPitch <= 0 {
		return errors.New("gallery row pitch must be positive")
	}
	return nil
}

// GalleryContentHeight is the scrollable height of a gallery showing n users.
// The list is rendered twice, so the wrap point at half the height lands
// exactly where the second copy begins.
func GalleryContentHeight(n int, layout GalleryLayout) int {
	if n <= 0 || layout.Columns <= 0 {
		return 0
	}
	rows := (2*n + layout.Columns - 1) / layout.Columns
	return rows * layout.RowPitch
}

type galleryViewModel struct {
	Name     string
	Title    string
	Loaded   bool
	Count    int
	Columns  int
	RowPitch int
	Rows     []store.ActiveUser
	Skeleton []struct{}
}

// Gallery renders the active users of a widget as an HTML fragment. The user
// list appears twice back-to-back so a looping scroll can wrap seamlessly.
func Gallery(name, title string, users []store.ActiveUser, layout GalleryLayout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultGalleryTitle
	}

	rows := make([]store.ActiveUser, 0, 2*len(users))
	rows = append(rows, users...)
	rows = append(rows, users...)

	return execute("gallery.html.tmpl", galleryViewModel{
		Name:     name,
		Title:    title,
		Loaded:   true,
		Count:    len(users),
		Columns:  layout.Columns,
		RowPitch: layout.RowPitch,
		Rows:     rows,
	})
}

// GalleryPlaceholder renders the skeleton shown before the first successful
// poll.
func GalleryPlaceholder(name, title string, layout GalleryLayout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultGalleryTitle
	}
	return execute("gallery.html.tmpl", galleryViewModel{
		Name:     name,
		Title:    title,
		Columns:  layout.Columns,
		RowPitch: layout.RowPitch,
		Skeleton: make([]struct{}, skeletonRows*layout.Columns),
	})
}
