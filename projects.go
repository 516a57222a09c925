package campuspulse

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	// DefaultTopN is the number of projects kept by [RankProjects].
	DefaultTopN = 10

	maxTopN = 50
)

// RawCount maps a project name to the number of users currently working on
// it, as returned by the projects endpoint.
type RawCount map[string]int

// ProjectEntry is one row of a ranked project list.
//
// Percentage is UserCount relative to the sum of the list it belongs to,
// formatted with two decimals and a trailing "%" (e.g. "75.00%").
type ProjectEntry struct {
	Project    string `json:"project"`
	UserCount  int    `json:"user_count"`
	Percentage string `json:"percentage"`
}

// RankProjects returns the [DefaultTopN] most popular projects, most users
// first. It is equivalent to RankTopProjects(raw, DefaultTopN).
//
// Example:
//
//	entries := campuspulse.RankProjects(campuspulse.RawCount{
//	    "ft_container": 3,
//	    "NetPractice":  1,
//	})
//	// [{ft_container 3 75.00%} {NetPractice 1 25.00%}]
func RankProjects(raw RawCount) []ProjectEntry {
	return RankTopProjects(raw, DefaultTopN)
}

// RankTopProjects sorts the projects by user count (descending, ties by name)
// and keeps the first n. Percentages are computed against the total of the
// kept entries only, so they sum to 100% whenever that total is positive. If
// the total is zero every entry gets "0.00%".
//
// The result is never nil. A non-positive n yields an empty list.
func RankTopProjects(raw RawCount, n int) []ProjectEntry {
	entries := make([]ProjectEntry, 0, len(raw))
	for project, count := range raw {
		entries = append(entries, ProjectEntry{Project: project, UserCount: count})
	}

	slices.SortFunc(entries, func(a, b ProjectEntry) int {
		if c := cmp.Compare(b.UserCount, a.UserCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Project, b.Project)
	})

	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		entries = entries[:n]
	}

	// float64 so counts near MaxInt cannot wrap the total negative
	var total float64
	for _, e := range entries {
		total += float64(e.UserCount)
	}

	for i := range entries {
		entries[i].Percentage = formatPercentage(entries[i].UserCount, total)
	}
	return entries
}

func formatPercentage(count int, total float64) string {
	if total <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/total*100)
}

// ParseRawCount decodes a projects payload: a JSON object mapping project
// names to non-negative integer user counts. A payload whose counts add up
// past math.MaxInt is rejected.
func ParseRawCount(body []byte) (RawCount, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode project counts: %w", err)
	}
	if fields == nil {
		return nil, errors.New("decode project counts: expected a JSON object, got null")
	}

	raw := make(RawCount, len(fields))
	sum := 0
	for project, value := range fields {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, fmt.Errorf("project %q: count is null", project)
		}
		var count int
		if err := json.Unmarshal(value, &count); err != nil {
			return nil, fmt.Errorf("project %q: count must be an integer: %w", project, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("project %q: count cannot be negative, got %d", project, count)
		}
		if count > math.MaxInt-sum {
			return nil, fmt.Errorf("project %q: total user count overflows", project)
		}
		sum += count
		raw[project] = count
	}
	return raw, nil
}
