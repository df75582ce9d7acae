package chunker

import (
	"path/filepath"
	"strings"
)

// Strategy describes how files of one type are split.
type Strategy struct {
	// Name is the file type this strategy serves, e.g. "python".
	Name string

	// Separators are tried in order; "" is the hard-cut fallback.
	Separators []string

	// Markdown selects header-section pre-splitting instead of plain
	// separator descent.
	Markdown bool
}

// genericSeparators split on paragraph, then line, then word, then character.
var genericSeparators = []string{"\n\n", "\n", " ", ""}

// languageSeparators prefer declaration boundaries so chunks tend to start at
// a function or type definition. Each list ends with the generic fallbacks.
var languageSeparators = map[string][]string{
	"python": {
		"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " ", "",
	},
	"go": {
		"\nfunc ", "\ntype ", "\nvar ", "\nconst ", "\nif ", "\nfor ",
		"\nswitch ", "\n\n", "\n", " ", "",
	},
	"javascript": {
		"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nclass ", "\nif ",
		"\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	"typescript": {
		"\nenum ", "\ninterface ", "\nnamespace ", "\ntype ", "\nclass ",
		"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nif ", "\nfor ",
		"\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	"java": {
		"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\nstatic ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"c": {
		"\nstruct ", "\nenum ", "\nunion ", "\ntypedef ", "\nstatic ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"cpp": {
		"\nclass ", "\nstruct ", "\nnamespace ", "\ntemplate ", "\nvoid ",
		"\nint ", "\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"csharp": {
		"\nnamespace ", "\nclass ", "\ninterface ", "\nenum ", "\npublic ",
		"\nprotected ", "\nprivate ", "\nstatic ", "\nif ", "\nfor ",
		"\nforeach ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"rust": {
		"\nfn ", "\nconst ", "\nlet ", "\nimpl ", "\nstruct ", "\nenum ",
		"\ntrait ", "\nmod ", "\nif ", "\nfor ", "\nwhile ", "\nmatch ",
		"\n\n", "\n", " ", "",
	},
	"ruby": {
		"\nclass ", "\ndef ", "\nmodule ", "\nif ", "\nunless ", "\nwhile ",
		"\nfor ", "\nbegin ", "\n\n", "\n", " ", "",
	},
	"php": {
		"\nfunction ", "\nclass ", "\nif ", "\nforeach ", "\nwhile ",
		"\nswitch ", "\ncase ", "\n\n", "\n", " ", "",
	},
	"swift": {
		"\nfunc ", "\nclass ", "\nstruct ", "\nenum ", "\nprotocol ",
		"\nextension ", "\nif ", "\nfor ", "\nwhile ", "\nswitch ",
		"\n\n", "\n", " ", "",
	},
	"kotlin": {
		"\nclass ", "\nfun ", "\nobject ", "\ninterface ", "\nval ",
		"\nvar ", "\nif ", "\nfor ", "\nwhile ", "\nwhen ",
		"\n\n", "\n", " ", "",
	},
	"scala": {
		"\nclass ", "\nobject ", "\ndef ", "\nval ", "\nvar ", "\ntrait ",
		"\nif ", "\nfor ", "\nwhile ", "\nmatch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"html": {
		"<body", "<div", "<p", "<br", "<li", "<h1", "<h2", "<h3", "<h4",
		"<h5", "<h6", "<span", "<table", "<tr", "<td", "<th", "<ul", "<ol",
		"<header", "<footer", "<nav", "<head", "<style", "<script", "<meta",
		"<title", "", // hard cut last
	},
	"latex": {
		"\n\\chapter{", "\n\\section{", "\n\\subsection{",
		"\n\\subsubsection{", "\n\\begin{", "\n\n", "\n", " ", "",
	},
	"sql": {
		"\nCREATE ", "\nALTER ", "\nINSERT ", "\nUPDATE ", "\nDELETE ",
		"\nSELECT ", "\n\n", "\n", " ", "",
	},
	"powershell": {
		"\nfunction ", "\nparam ", "\nif ", "\nforeach ", "\nfor ",
		"\nwhile ", "\nswitch ", "\nclass ", "\ntry ", "\n\n", "\n", " ", "",
	},
}

// extensionTypes maps known file extensions to their strategy name. Files
// with other extensions have no splitting strategy and are skipped entirely.
var extensionTypes = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".c":    "c",
	".h":    "c",
	".cs":   "csharp",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
	".swift": "swift",
	".kt":   "kotlin",
	".scala": "scala",
	".r":    "r",
	".m":    "objective-c",
	".mm":   "objective-c",
	".md":   "markdown",
	".tex":  "latex",
	".html": "html",
	".htm":  "html",
	".xml":  "xml",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".sh":   "bash",
	".bash": "bash",
	".ps1":  "powershell",
	".sql":  "sql",
	".txt":  "text",
}

// StrategyForPath returns the splitting strategy for a file path based on its
// extension, or ok=false when the file type is not indexable.
func StrategyForPath(path string) (Strategy, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extensionTypes[ext]
	if !ok {
		return Strategy{}, false
	}
	return strategyByName(name), true
}

// Supported reports whether the file type has a splitting strategy.
func Supported(path string) bool {
	_, ok := StrategyForPath(path)
	return ok
}

func strategyByName(name string) Strategy {
	if name == "markdown" {
		return Strategy{Name: name, Separators: genericSeparators, Markdown: true}
	}
	seps, ok := languageSeparators[name]
	if !ok {
		// Types without a language-specific list (yaml, json, text, ...)
		// fall back to generic paragraph/line/word splitting.
		seps = genericSeparators
	}
	return Strategy{Name: name, Separators: seps}
}
