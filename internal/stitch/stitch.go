// Package stitch merges per-chunk transcripts into one coherent text,
// suppressing the duplicate words introduced by the chunk overlap window.
package stitch

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultWindow is how many words on each side of a seam are inspected for
// overlap. Five is an empirical heuristic; tune per deployment.
const DefaultWindow = 5

// ErrInvalidPiece indicates a transcript that is empty or filler-only after
// cleaning. The caller should retry the chunk rather than drop it silently.
var ErrInvalidPiece = errors.New("transcript piece is empty or filler-only")

// Piece is one chunk's transcript, positioned by its chunk's start offset.
// StartTime is authoritative for ordering: completion order is not.
type Piece struct {
	Text      string
	StartTime time.Duration
}

// fillerArtifacts are stock phrases the provider emits for silent or musical
// segments. Stripped during cleaning; a piece reduced to nothing by this is
// rejected as invalid.
var fillerArtifacts = []string{
	"thanks for watching",
	"thank you for watching",
	"subtitles by the amara.org community",
	"transcribed by https://otter.ai",
	"[music]",
	"[applause]",
	"[laughter]",
	"[silence]",
	"(music)",
	"♪",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Clean collapses repeated whitespace, trims, and strips known provider
// filler artifacts.
func Clean(text string) string {
	for _, f := range fillerArtifacts {
		for {
			start, end := foldIndex(text, f)
			if start < 0 {
				break
			}
			text = text[:start] + text[end:]
		}
	}

	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// foldIndex returns the byte bounds in s of the first case-insensitive match
// of substr, or -1, -1 when absent. Both offsets refer to s itself; matching
// never goes through a lowercased copy, whose byte offsets can drift on
// case-fold-expanding runes (e.g. U+0130 lowercases to two runes).
func foldIndex(s, substr string) (int, int) {
	for i := range s {
		j := i
		rest := substr
		for rest != "" && j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			fr, fsize := utf8.DecodeRuneInString(rest)
			if !foldEqual(r, fr) {
				break
			}
			j += size
			rest = rest[fsize:]
		}
		if rest == "" {
			return i, j
		}
	}
	return -1, -1
}

// foldEqual reports whether two runes are equal under simple case folding.
func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// Sanitize cleans a piece's text and validates it is plausible speech output.
// Returns ErrInvalidPiece if nothing but punctuation remains after cleaning.
func Sanitize(text string) (string, error) {
	cleaned := Clean(text)
	if !strings.ContainsFunc(cleaned, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) {
		return "", ErrInvalidPiece
	}
	return cleaned, nil
}

// Merge sorts pieces by StartTime and concatenates them, removing the longest
// word overlap (up to window words) between each accumulated tail and
// incoming head. Pieces with no textual overlap are joined with a single
// space. Merge assumes pieces are already cleaned; order of the input slice
// does not matter.
func Merge(pieces []Piece, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(pieces) == 0 {
		return ""
	}

	sorted := make([]Piece, len(pieces))
	copy(sorted, pieces)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	accWords := strings.Fields(sorted[0].Text)
	for _, p := range sorted[1:] {
		inWords := strings.Fields(p.Text)
		if len(inWords) == 0 {
			continue
		}

		overlap := overlapLen(accWords, inWords, window)
		accWords = append(accWords[:len(accWords)-overlap], inWords...)
	}

	return strings.Join(accWords, " ")
}

// overlapLen finds the longest suffix of acc that is also a prefix of in,
// scanning from the largest candidate (window words) down to zero.
// Comparison is case-insensitive and ignores seam punctuation, since the
// provider may render the same boundary words differently in two chunks.
func overlapLen(acc, in []string, window int) int {
	maxLen := min(window, min(len(acc), len(in)))

	for k := maxLen; k > 0; k-- {
		match := true
		for i := 0; i < k; i++ {
			if !wordEqual(acc[len(acc)-k+i], in[i]) {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

// wordEqual compares words case-insensitively, ignoring trailing punctuation.
func wordEqual(a, b string) bool {
	trim := func(s string) string {
		return strings.TrimRight(s, ".,!?;:")
	}
	return strings.EqualFold(trim(a), trim(b))
}
