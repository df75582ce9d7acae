package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestSplitText_SizeBound verifies no chunk exceeds the configured size when
// content is splittable.
func TestSplitText_SizeBound(t *testing.T) {
	s, err := NewSplitter(Config{ChunkSize: 200, ChunkOverlap: 30})
	if err != nil {
		t.Fatalf("NewSplitter failed: %v", err)
	}

	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("some ordinary words forming a sentence here.\n")
	}

	chunks := s.SplitText(b.String(), genericSeparators)
	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 200 {
			t.Errorf("Chunk %d has %d runes, exceeds 200", i, utf8.RuneCountInString(c))
		}
	}
}

// TestSplitText_Overlap verifies consecutive chunks share the overlap window.
func TestSplitText_Overlap(t *testing.T) {
	s, err := NewSplitter(Config{ChunkSize: 200, ChunkOverlap: 30})
	if err != nil {
		t.Fatalf("NewSplitter failed: %v", err)
	}

	// 600 characters of line-structured content.
	var b strings.Builder
	for b.Len() < 600 {
		b.WriteString("line of python-ish content for the test file\n")
	}
	content := b.String()[:600]

	chunks := s.SplitText(content, languageSeparators["python"])
	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks for 600 chars at size 200, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		tail := overlapTail(chunks[i], 30)
		if !strings.HasPrefix(chunks[i+1], tail) {
			t.Errorf("Chunk %d does not start with the 30-rune tail of chunk %d", i+1, i)
		}
	}
}

// TestSplitText_Coverage verifies chunked content covers the original with no
// gaps once overlap prefixes are stripped.
func TestSplitText_Coverage(t *testing.T) {
	s, err := NewSplitter(Config{ChunkSize: 80, ChunkOverlap: 10})
	if err != nil {
		t.Fatalf("NewSplitter failed: %v", err)
	}

	content := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta\n", 12)
	chunks := s.SplitText(content, genericSeparators)
	if len(chunks) == 0 {
		t.Fatal("Expected chunks")
	}

	var reassembled strings.Builder
	reassembled.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		tail := overlapTail(chunks[i-1], 10)
		rest, ok := strings.CutPrefix(chunks[i], tail)
		if !ok {
			t.Fatalf("Chunk %d missing overlap prefix", i)
		}
		reassembled.WriteString(rest)
	}
	if reassembled.String() != content {
		t.Error("Reassembled chunks do not reconstruct the original content")
	}
}

// TestSplitText_OversizedAtomicUnit verifies an unsplittable unit is kept
// whole rather than truncated.
func TestSplitText_OversizedAtomicUnit(t *testing.T) {
	s, err := NewSplitter(Config{ChunkSize: 50, ChunkOverlap: 5})
	if err != nil {
		t.Fatalf("NewSplitter failed: %v", err)
	}

	long := strings.Repeat("x", 120)
	// Separator list without the hard-cut fallback: the long run is atomic.
	chunks := s.SplitText("short\n"+long+"\nalso short", []string{"\n\n", "\n"})

	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
		}
	}
	if !found {
		t.Error("Oversized atomic unit was truncated or dropped")
	}
}

// TestSplitText_Empty verifies whitespace-only content yields no chunks.
func TestSplitText_Empty(t *testing.T) {
	s, _ := NewSplitter(Config{})
	if got := s.SplitText("   \n\t\n", genericSeparators); got != nil {
		t.Errorf("Expected nil chunks for blank content, got %d", len(got))
	}
}

// TestNewSplitter_InvalidOverlap verifies overlap >= size is rejected.
func TestNewSplitter_InvalidOverlap(t *testing.T) {
	if _, err := NewSplitter(Config{ChunkSize: 100, ChunkOverlap: 100}); err == nil {
		t.Error("Expected error for overlap equal to chunk size")
	}
}

// TestStrategyForPath covers the extension registry.
func TestStrategyForPath(t *testing.T) {
	cases := []struct {
		path      string
		supported bool
		name      string
	}{
		{"main.py", true, "python"},
		{"src/server.go", true, "go"},
		{"docs/README.md", true, "markdown"},
		{"notes.TXT", true, "text"},
		{"image.png", false, ""},
		{"archive.bin", false, ""},
		{"Makefile", false, ""},
	}

	for _, tc := range cases {
		strat, ok := StrategyForPath(tc.path)
		if ok != tc.supported {
			t.Errorf("StrategyForPath(%q): supported=%v, want %v", tc.path, ok, tc.supported)
			continue
		}
		if ok && strat.Name != tc.name {
			t.Errorf("StrategyForPath(%q): name=%q, want %q", tc.path, strat.Name, tc.name)
		}
	}
}

// TestSplitFile_Unsupported verifies unsupported types report no strategy.
func TestSplitFile_Unsupported(t *testing.T) {
	s, _ := NewSplitter(Config{})
	if _, ok := s.SplitFile("data.bin", "\x00\x01\x02"); ok {
		t.Error("Expected no strategy for .bin files")
	}
}

// TestSplitFile_PythonDeclarationBoundaries checks that chunks prefer to
// start at def/class boundaries.
func TestSplitFile_PythonDeclarationBoundaries(t *testing.T) {
	s, _ := NewSplitter(Config{ChunkSize: 120, ChunkOverlap: 20})

	src := `import os

def first():
    return 1

def second():
    return 2

class Thing:
    def method(self):
        return 3
`
	chunks, ok := s.SplitFile("mod.py", src)
	if !ok {
		t.Fatal("Expected python strategy")
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	joined := strings.Join(chunks, "")
	if !strings.Contains(joined, "def second():") {
		t.Error("Content lost during splitting")
	}
}
