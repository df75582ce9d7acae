// Package chunker splits file content into bounded, overlapping text chunks.
//
// Splitting descends through a ranked list of separators (paragraph, then
// line, then word, then single characters) and only falls back to a hard cut
// when no coarser boundary fits inside the size budget. Languages with
// structural keywords get their own separator lists so chunks tend to start
// at declaration boundaries.
package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrOverlapTooLarge is returned when the configured overlap is not smaller
// than the chunk size.
var ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")

const (
	// DefaultChunkSize bounds a chunk's length in characters.
	DefaultChunkSize = 200

	// DefaultChunkOverlap is the number of characters consecutive chunks share.
	DefaultChunkOverlap = 30
)

// Config controls chunk sizing.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// Splitter produces ordered, overlapping chunks from text content.
type Splitter struct {
	cfg Config
}

// NewSplitter creates a Splitter, applying defaults for zero values.
// ChunkOverlap must be smaller than ChunkSize.
func NewSplitter(cfg Config) (*Splitter, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, ErrOverlapTooLarge
	}
	return &Splitter{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (s *Splitter) Config() Config { return s.cfg }

// SplitFile chunks content using the strategy registered for the file's
// extension. The second return value is false when the file type has no
// strategy; such files are skipped by callers, not treated as errors.
func (s *Splitter) SplitFile(path, content string) ([]string, bool) {
	strat, ok := StrategyForPath(path)
	if !ok {
		return nil, false
	}
	if strings.TrimSpace(content) == "" {
		return nil, true
	}
	if strat.Markdown {
		return s.splitMarkdown(content), true
	}
	return s.SplitText(content, strat.Separators), true
}

// SplitText splits text with an explicit separator list. Separators are tried
// in order; the empty-string separator means a hard character cut.
func (s *Splitter) SplitText(text string, separators []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	units := s.splitRecursive(text, separators)
	return s.merge(units)
}

// splitRecursive breaks text into units no longer than ChunkSize, descending
// the separator list whenever a piece is still too large. A piece that cannot
// be split by any remaining separator is returned whole rather than dropped.
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.cfg.ChunkSize {
		return []string{text}
	}

	// Find the first separator that actually occurs in this text.
	sep := ""
	rest := separators
	found := false
	for i, cand := range separators {
		if cand == "" {
			sep, rest, found = "", nil, true
			break
		}
		if strings.Contains(text, cand) {
			sep, rest, found = cand, separators[i+1:], true
			break
		}
	}
	if !found {
		// Atomic oversized unit: keep it whole, never truncate.
		return []string{text}
	}

	if sep == "" {
		return s.hardCut(text)
	}

	var units []string
	for _, part := range splitAfter(text, sep) {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= s.cfg.ChunkSize {
			units = append(units, part)
			continue
		}
		units = append(units, s.splitRecursive(part, rest)...)
	}
	return units
}

// hardCut slices text into ChunkSize-rune pieces.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	var units []string
	for i := 0; i < len(runes); i += s.cfg.ChunkSize {
		end := min(i+s.cfg.ChunkSize, len(runes))
		units = append(units, string(runes[i:end]))
	}
	return units
}

// merge greedily packs units into chunks of at most ChunkSize runes. When a
// chunk is emitted, its last ChunkOverlap runes seed the next chunk, so
// consecutive chunks share a full overlap window.
func (s *Splitter) merge(units []string) []string {
	var chunks []string
	var buf strings.Builder
	bufLen := 0   // rune count of buf
	carried := 0  // rune count of the overlap prefix carried into buf
	fresh := false // buf holds content beyond the carried overlap

	emit := func() {
		if !fresh {
			return
		}
		chunks = append(chunks, buf.String())
		tail := overlapTail(buf.String(), s.cfg.ChunkOverlap)
		buf.Reset()
		buf.WriteString(tail)
		bufLen = utf8.RuneCountInString(tail)
		carried = bufLen
		fresh = false
	}

	for _, unit := range units {
		n := utf8.RuneCountInString(unit)
		if bufLen+n > s.cfg.ChunkSize && fresh {
			emit()
		}
		if carried+n > s.cfg.ChunkSize && !fresh {
			// Unit doesn't fit even after the overlap prefix; drop the
			// prefix so an oversized atomic unit stands alone.
			buf.Reset()
			bufLen = 0
			carried = 0
		}
		buf.WriteString(unit)
		bufLen += n
		fresh = true
	}
	emit()
	return chunks
}

// overlapTail returns the last n runes of text.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// splitAfter splits text on sep, keeping the separator attached to the
// preceding piece so concatenating the pieces reconstructs the input.
func splitAfter(text, sep string) []string {
	return strings.SplitAfter(text, sep)
}
