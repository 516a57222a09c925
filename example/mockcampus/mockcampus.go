// Package mockcampus serves a simulated campus activity API for demos and
// manual testing of CampusPulse.
//
// Routes:
//
//	GET /on-campus/active-user-projects            {"project": count, ...}
//	GET /on-campus/active-users                    [{"image": ..., "login": ...}, ...]
//	GET /campus/{campus}/on-campus/active-users    same, for one campus
//	GET /campus/{campus}/on-campus/active-user-projects
//
// Every request moves a few students on or off campus and between projects,
// so the dashboard has something to show.
package mockcampus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Campuses lists the campuses the mock knows about.
var Campuses = []string{"lyon", "paris", "tokyo"}

var projects = []string{
	"libft", "ft_printf", "get_next_line", "push_swap", "minitalk",
	"so_long", "pipex", "philosophers", "minishell", "NetPractice",
	"cub3d", "ft_irc", "webserv", "ft_containers", "inception",
	"ft_transcendence",
}

type student struct {
	login    string
	image    string
	project  string
	onCampus bool
}

// Campus is the simulated state of one campus.
type Campus struct {
	mu       sync.Mutex
	rng      *rand.Rand
	students []*student
}

// NewCampus creates a campus with size students. The same seed produces the
// same sequence of states.
func NewCampus(name string, size int, seed uint64) *Campus {
	c := &Campus{rng: rand.New(rand.NewPCG(seed, uint64(len(name))))}
	for i := 0; i < size; i++ {
		s := &student{
			login:    fmt.Sprintf("%s%03d", name[:min(3, len(name))], i),
			project:  projects[c.rng.IntN(len(projects))],
			onCampus: c.rng.IntN(3) > 0,
		}
		// some students never set a picture
		if c.rng.IntN(5) > 0 {
			s.image = fmt.Sprintf("https://picsum.photos/seed/%s/64", s.login)
		}
		c.students = append(c.students, s)
	}
	return c
}

// step moves a handful of students. Caller holds c.mu.
func (c *Campus) step() {
	if len(c.students) == 0 {
		return
	}
	for i := 0; i < 1+len(c.students)/10; i++ {
		s := c.students[c.rng.IntN(len(c.students))]
		if c.rng.IntN(2) == 0 {
			s.onCampus = !s.onCampus
		} else {
			s.project = projects[c.rng.IntN(len(projects))]
		}
	}
}

// ActiveUser is one entry of the active-users response.
type ActiveUser struct {
	Image *string `json:"image"`
	Login string  `json:"login"`
}

// Snapshot advances the simulation and returns the active users and the
// number of active users per project.
func (c *Campus) Snapshot() ([]ActiveUser, map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.step()

	users := []ActiveUser{}
	counts := map[string]int{}
	for _, s := range c.students {
		if !s.onCampus {
			continue
		}
		u := ActiveUser{Login: s.login}
		if s.image != "" {
			img := s.image
			u.Image = &img
		}
		users = append(users, u)
		counts[s.project]++
	}
	return users, counts
}

// NewHandler returns the mock API. Every known campus gets its own state;
// the unprefixed routes serve the first campus.
func NewHandler(seed uint64, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	campuses := make(map[string]*Campus, len(Campuses))
	for i, name := range Campuses {
		campuses[name] = NewCampus(name, 40+i*15, seed+uint64(i))
	}
	def := campuses[Campuses[0]]

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to write response", "error", err)
		}
	}
	campusFor := func(r *http.Request) *Campus {
		name := chi.URLParam(r, "campus")
		if name == "" {
			return def
		}
		return campuses[name]
	}
	users := func(w http.ResponseWriter, r *http.Request) {
		c := campusFor(r)
		if c == nil {
			http.NotFound(w, r)
			return
		}
		u, _ := c.Snapshot()
		writeJSON(w, u)
	}
	projectCounts := func(w http.ResponseWriter, r *http.Request) {
		c := campusFor(r)
		if c == nil {
			http.NotFound(w, r)
			return
		}
		_, counts := c.Snapshot()
		writeJSON(w, counts)
	}

	r := chi.NewRouter()
	r.Get("/on-campus/active-users", users)
	r.Get("/on-campus/active-user-projects", projectCounts)
	r.Route("/campus/{campus}/on-campus", func(r chi.Router) {
		r.Get("/active-users", users)
		r.Get("/active-user-projects", projectCounts)
	})
	return r
}
