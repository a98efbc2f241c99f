package stitch_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/reelscribe/reelscribe/internal/stitch"
)

// ---------------------------------------------------------------------------
// Clean / Sanitize
// ---------------------------------------------------------------------------

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "hello   world\n\tagain", "hello world again"},
		{"trims", "  padded  ", "padded"},
		{"strips filler phrase", "the plan works. Thanks for watching!", "the plan works. !"},
		{"strips bracketed tags", "[Music] let's begin", "let's begin"},
		{"case-insensitive filler match", "THANKS FOR WATCHING", ""},
		{"plain text untouched", "nothing to clean here", "nothing to clean here"},
		{"filler after case-fold-expanding rune", "İ [music] done", "İ done"},
		{"filler after many expanding runes", "İİİİİİİİ [music]", "İİİİİİİİ"},
		{"expanding rune only", "İstanbul konuşması", "İstanbul konuşması"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := stitch.Clean(tt.in)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Clean(%q) produced invalid UTF-8: %q", tt.in, got)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"real speech passes", "so the first step is decoding", false},
		{"empty is invalid", "", true},
		{"whitespace only is invalid", "   \n ", true},
		{"filler only is invalid", "Thanks for watching!", true},
		{"filler plus punctuation is invalid", " [Music] ...", true},
		{"speech around filler passes", "and that's it [Music] goodbye", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := stitch.Sanitize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Sanitize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, stitch.ErrInvalidPiece) {
				t.Errorf("Sanitize(%q) error = %v, want ErrInvalidPiece", tt.in, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pieces []stitch.Piece
		want   string
	}{
		{
			name:   "empty input",
			pieces: nil,
			want:   "",
		},
		{
			name: "single piece",
			pieces: []stitch.Piece{
				{Text: "only one chunk", StartTime: 0},
			},
			want: "only one chunk",
		},
		{
			name: "disjoint pieces join with a space",
			pieces: []stitch.Piece{
				{Text: "first part ends here", StartTime: 0},
				{Text: "second part starts fresh", StartTime: 30 * time.Second},
			},
			want: "first part ends here second part starts fresh",
		},
		{
			name: "overlap removed at seam",
			pieces: []stitch.Piece{
				{Text: "we should ship it on friday morning", StartTime: 0},
				{Text: "on friday morning the release goes out", StartTime: 30 * time.Second},
			},
			want: "we should ship it on friday morning the release goes out",
		},
		{
			name: "overlap match is case and punctuation tolerant",
			pieces: []stitch.Piece{
				{Text: "let me explain the Plan.", StartTime: 0},
				{Text: "the plan is simple", StartTime: 20 * time.Second},
			},
			want: "let me explain the plan is simple",
		},
		{
			name: "longest overlap wins over shorter",
			pieces: []stitch.Piece{
				{Text: "a b c b c", StartTime: 0},
				{Text: "b c d e", StartTime: 10 * time.Second},
			},
			want: "a b c b c d e",
		},
		{
			name: "three pieces chain",
			pieces: []stitch.Piece{
				{Text: "one two three four", StartTime: 0},
				{Text: "three four five six", StartTime: 10 * time.Second},
				{Text: "five six seven eight", StartTime: 20 * time.Second},
			},
			want: "one two three four five six seven eight",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := stitch.Merge(tt.pieces, stitch.DefaultWindow); got != tt.want {
				t.Errorf("Merge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMerge_OrderIndependence(t *testing.T) {
	t.Parallel()

	pieces := []stitch.Piece{
		{Text: "alpha beta gamma delta", StartTime: 0},
		{Text: "gamma delta epsilon zeta", StartTime: 10 * time.Second},
		{Text: "epsilon zeta eta theta", StartTime: 20 * time.Second},
		{Text: "eta theta iota kappa", StartTime: 30 * time.Second},
	}

	want := stitch.Merge(pieces, stitch.DefaultWindow)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]stitch.Piece, len(pieces))
		copy(shuffled, pieces)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if got := stitch.Merge(shuffled, stitch.DefaultWindow); got != want {
			t.Fatalf("trial %d: Merge() = %q, want %q (completion order must not matter)", trial, got, want)
		}
	}
}

func TestMerge_WindowBoundsOverlapSearch(t *testing.T) {
	t.Parallel()

	// The true overlap is 3 words; a 2-word window cannot align it, so the
	// duplication survives. The window is a deliberate bound, not a bug.
	pieces := []stitch.Piece{
		{Text: "p q r s t", StartTime: 0},
		{Text: "r s t u", StartTime: 10 * time.Second},
	}

	if got := stitch.Merge(pieces, 2); got != "p q r s t r s t u" {
		t.Errorf("Merge(window=2) = %q, want duplication retained", got)
	}
	if got := stitch.Merge(pieces, 3); got != "p q r s t u" {
		t.Errorf("Merge(window=3) = %q, want overlap removed", got)
	}
}
