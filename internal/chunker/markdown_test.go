package chunker

import (
	"strings"
	"testing"
)

// TestMarkdownSections_BasicHeaders tests section extraction at H1/H2.
func TestMarkdownSections_BasicHeaders(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	sections := markdownSections([]byte(input))
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}
	if !strings.Contains(sections[0], "Introduction text here") {
		t.Errorf("Section 0 missing expected content")
	}
	if !strings.Contains(sections[1], "Install steps here") {
		t.Errorf("Section 1 missing expected content")
	}
	if !strings.Contains(sections[2], "Config details here") {
		t.Errorf("Section 2 missing expected content")
	}
}

// TestMarkdownSections_MarkersStayWithSection pins the exact section
// boundaries for a document whose first byte is a heading marker: no
// marker-only section, and each section begins with its own "#" line.
func TestMarkdownSections_MarkersStayWithSection(t *testing.T) {
	input := "# Title\n\nBody text here.\n\n## Second\n\nMore text.\n"

	sections := markdownSections([]byte(input))
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d: %q", len(sections), sections)
	}
	if sections[0] != "# Title\n\nBody text here." {
		t.Errorf("Section 0 = %q", sections[0])
	}
	if sections[1] != "## Second\n\nMore text." {
		t.Errorf("Section 1 = %q", sections[1])
	}
}

// TestMarkdownSections_PreambleBeforeFirstHeader keeps text ahead of the
// first heading as its own section.
func TestMarkdownSections_PreambleBeforeFirstHeader(t *testing.T) {
	input := "Lead paragraph before any heading.\n\n# First\n\nContent.\n"

	sections := markdownSections([]byte(input))
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d: %q", len(sections), sections)
	}
	if sections[0] != "Lead paragraph before any heading." {
		t.Errorf("Section 0 = %q", sections[0])
	}
	if !strings.HasPrefix(sections[1], "# First") {
		t.Errorf("Section 1 = %q", sections[1])
	}
}

// TestMarkdownSections_H3NotABoundary verifies H3 content stays inside its
// parent section.
func TestMarkdownSections_H3NotABoundary(t *testing.T) {
	input := `# API Reference

Overview of the API.

## Methods

Available methods.

### Details

Some details here.
`

	sections := markdownSections([]byte(input))
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(sections))
	}
	if !strings.Contains(sections[1], "Some details here") {
		t.Error("H3 subsection was split from its parent")
	}
}

// TestMarkdownSections_NoHeaders verifies headerless documents return nil.
func TestMarkdownSections_NoHeaders(t *testing.T) {
	input := "Just plain text content.\n\nNo headers at all.\n"
	if sections := markdownSections([]byte(input)); sections != nil {
		t.Errorf("Expected nil sections, got %d", len(sections))
	}
}

// TestSplitFile_Markdown verifies markdown pre-splitting feeds size-bounded
// chunks and no section content is lost.
func TestSplitFile_Markdown(t *testing.T) {
	s, _ := NewSplitter(Config{ChunkSize: 100, ChunkOverlap: 10})

	var body strings.Builder
	body.WriteString("# Title\n\n")
	for i := 0; i < 10; i++ {
		body.WriteString("Sentence about the first topic goes here.\n")
	}
	body.WriteString("\n## Second\n\n")
	for i := 0; i < 10; i++ {
		body.WriteString("Sentence about the second topic goes here.\n")
	}

	chunks, ok := s.SplitFile("doc.md", body.String())
	if !ok {
		t.Fatal("Expected markdown strategy")
	}
	if len(chunks) < 4 {
		t.Fatalf("Expected several chunks, got %d", len(chunks))
	}

	joined := strings.Join(chunks, "")
	if !strings.Contains(joined, "first topic") || !strings.Contains(joined, "second topic") {
		t.Error("Section content lost during markdown chunking")
	}
}
