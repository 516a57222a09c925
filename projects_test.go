package campuspulse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRankProjects(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCount
		want []ProjectEntry
	}{
		{
			name: "two projects",
			raw:  RawCount{"ft_container": 3, "NetPractice": 1},
			want: []ProjectEntry{
				{Project: "ft_container", UserCount: 3, Percentage: "75.00%"},
				{Project: "NetPractice", UserCount: 1, Percentage: "25.00%"},
			},
		},
		{
			name: "single project",
			raw:  RawCount{"libft": 7},
			want: []ProjectEntry{
				{Project: "libft", UserCount: 7, Percentage: "100.00%"},
			},
		},
		{
			name: "thirds round to two decimals",
			raw:  RawCount{"a": 1, "b": 1, "c": 1},
			want: []ProjectEntry{
				{Project: "a", UserCount: 1, Percentage: "33.33%"},
				{Project: "b", UserCount: 1, Percentage: "33.33%"},
				{Project: "c", UserCount: 1, Percentage: "33.33%"},
			},
		},
		{
			name: "all zero",
			raw:  RawCount{"a": 0, "b": 0},
			want: []ProjectEntry{
				{Project: "a", UserCount: 0, Percentage: "0.00%"},
				{Project: "b", UserCount: 0, Percentage: "0.00%"},
			},
		},
		{
			name: "zero alongside positive",
			raw:  RawCount{"minishell": 2, "cub3d": 0},
			want: []ProjectEntry{
				{Project: "minishell", UserCount: 2, Percentage: "100.00%"},
				{Project: "cub3d", UserCount: 0, Percentage: "0.00%"},
			},
		},
		{
			name: "ties broken by name",
			raw:  RawCount{"push_swap": 2, "minitalk": 2, "so_long": 5},
			want: []ProjectEntry{
				{Project: "so_long", UserCount: 5, Percentage: "55.56%"},
				{Project: "minitalk", UserCount: 2, Percentage: "22.22%"},
				{Project: "push_swap", UserCount: 2, Percentage: "22.22%"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankProjects(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RankProjects() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankProjects_EmptyInput(t *testing.T) {
	for _, raw := range []RawCount{nil, {}} {
		got := RankProjects(raw)
		if got == nil {
			t.Error("RankProjects() = nil, want empty slice")
		}
		if len(got) != 0 {
			t.Errorf("RankProjects() = %v, want empty", got)
		}
	}
}

// TestRankProjects_TopTenOfTwelve verifies truncation and that percentages
// are relative to the kept subset only.
func TestRankProjects_TopTenOfTwelve(t *testing.T) {
	raw := RawCount{}
	for i := 1; i <= 12; i++ {
		raw[fmt.Sprintf("p%02d", i)] = i
	}

	got := RankProjects(raw)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0].Project != "p12" || got[9].Project != "p03" {
		t.Errorf("kept %s..%s, want p12..p03", got[0].Project, got[9].Project)
	}

	// kept counts are 3..12, total 75
	if got[0].Percentage != "16.00%" {
		t.Errorf("top percentage = %s, want 16.00%% (12/75)", got[0].Percentage)
	}
	if got[9].Percentage != "4.00%" {
		t.Errorf("last percentage = %s, want 4.00%% (3/75)", got[9].Percentage)
	}
}

func TestRankProjects_Invariants(t *testing.T) {
	raw := RawCount{}
	for i := 0; i < 25; i++ {
		raw[fmt.Sprintf("project-%d", i)] = (i * 7) % 11
	}

	got := RankProjects(raw)

	if len(got) > DefaultTopN {
		t.Fatalf("len = %d, exceeds %d", len(got), DefaultTopN)
	}

	sum := 0.0
	for i, e := range got {
		if i > 0 && e.UserCount > got[i-1].UserCount {
			t.Errorf("entry %d (%d) ranks above %d", i, e.UserCount, got[i-1].UserCount)
		}
		if !strings.HasSuffix(e.Percentage, "%") {
			t.Fatalf("percentage %q lacks %%", e.Percentage)
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(e.Percentage, "%"), 64)
		if err != nil {
			t.Fatalf("percentage %q: %v", e.Percentage, err)
		}
		sum += v
	}
	if sum < 99.9 || sum > 100.1 {
		t.Errorf("percentages sum to %.2f, want ~100", sum)
	}
}

func TestRankProjects_IsPure(t *testing.T) {
	raw := RawCount{"ft_container": 3, "NetPractice": 1}

	first := RankProjects(raw)
	second := RankProjects(raw)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated calls differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(RawCount{"ft_container": 3, "NetPractice": 1}, raw); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
}

func TestRankTopProjects_N(t *testing.T) {
	raw := RawCount{"a": 4, "b": 3, "c": 2, "d": 1}

	got := RankTopProjects(raw, 2)
	want := []ProjectEntry{
		{Project: "a", UserCount: 4, Percentage: "57.14%"},
		{Project: "b", UserCount: 3, Percentage: "42.86%"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RankTopProjects(2) mismatch (-want +got):\n%s", diff)
	}

	if got := RankTopProjects(raw, 0); got == nil || len(got) != 0 {
		t.Errorf("RankTopProjects(0) = %v, want empty", got)
	}
	if got := RankTopProjects(raw, -1); got == nil || len(got) != 0 {
		t.Errorf("RankTopProjects(-1) = %v, want empty", got)
	}
	if got := RankTopProjects(raw, 50); len(got) != 4 {
		t.Errorf("RankTopProjects(50) len = %d, want 4 (no padding)", len(got))
	}
}

func TestParseRawCount(t *testing.T) {
	got, err := ParseRawCount([]byte(`{"ft_container": 3, "NetPractice": 1, "libft": 0}`))
	if err != nil {
		t.Fatalf("ParseRawCount() error = %v", err)
	}
	want := RawCount{"ft_container": 3, "NetPractice": 1, "libft": 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRawCount() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRawCount_Empty(t *testing.T) {
	got, err := ParseRawCount([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseRawCount() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ParseRawCount({}) = %v, want empty", got)
	}
}

func TestParseRawCount_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":     `{"a": 1`,
		"array":         `[1, 2]`,
		"null document": `null`,
		"null count":    `{"a": null}`,
		"string count":  `{"a": "3"}`,
		"float count":   `{"a": 1.5}`,
		"negative":      `{"a": -2}`,
		"nested object": `{"a": {"count": 1}}`,
		"empty body":    ``,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRawCount([]byte(body)); err == nil {
				t.Errorf("ParseRawCount(%s) expected error", body)
			}
		})
	}
}

func TestParseRawCount_RejectsOverflowingTotal(t *testing.T) {
	body := []byte(fmt.Sprintf(`{"a": %d, "b": 1}`, math.MaxInt))
	_, err := ParseRawCount(body)
	if err == nil {
		t.Fatal("ParseRawCount() expected error for a total past MaxInt")
	}
	if !strings.Contains(err.Error(), "overflows") {
		t.Errorf("error = %q, want overflow", err.Error())
	}

	got, err := ParseRawCount([]byte(fmt.Sprintf(`{"a": %d, "b": 0}`, math.MaxInt)))
	if err != nil {
		t.Fatalf("ParseRawCount() at MaxInt error = %v", err)
	}
	if got["a"] != math.MaxInt {
		t.Errorf("a = %d, want MaxInt", got["a"])
	}
}

func TestRankProjects_HugeCountsKeepPercentages(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCount
		want []string
	}{
		{"two halves", RawCount{"a": math.MaxInt/2 + 1, "b": math.MaxInt/2 + 1}, []string{"50.00%", "50.00%"}},
		{"max plus one", RawCount{"a": math.MaxInt, "b": 1}, []string{"100.00%", "0.00%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankProjects(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if got[i].Percentage != want {
					t.Errorf("entry %d (%s) = %s, want %s", i, got[i].Project, got[i].Percentage, want)
				}
			}
		})
	}
}

func BenchmarkRankProjects(b *testing.B) {
	raw := RawCount{}
	for i := 0; i < 200; i++ {
		raw[fmt.Sprintf("project-%d", i)] = i % 37
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RankProjects(raw)
	}
}
