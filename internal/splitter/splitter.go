// Package splitter cuts raw file text into overlapping chunks.
//
// Splitting is delegated to the recursive character splitter from langchaingo. Plain text is
// split on paragraph, line, word and character boundaries; source code can instead be split
// on language keywords first so chunks tend to start at a declaration.
package splitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// ErrInvalidParams is returned when chunk size and overlap cannot produce chunks.
var ErrInvalidParams = errors.New("invalid splitter parameters")

// Language selects a keyword-aware separator list.
type Language string

const (
	LanguageNone   Language = ""
	LanguagePython Language = "python"
	LanguageGo     Language = "go"
	LanguageJS     Language = "js"
	LanguageTS     Language = "ts"
	LanguageJava   Language = "java"
	LanguageRust   Language = "rust"
)

// DefaultSeparators is used when no language is set.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

var languageSeparators = map[Language][]string{
	LanguagePython: {"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " ", ""},
	LanguageGo: {
		"\nfunc ", "\nvar ", "\nconst ", "\ntype ",
		"\nif ", "\nfor ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	LanguageJS: {
		"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nclass ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	LanguageTS: {
		"\nenum ", "\ninterface ", "\nnamespace ", "\ntype ",
		"\nclass ", "\nfunction ", "\nconst ", "\nlet ", "\nvar ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	LanguageJava: {
		"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\nstatic ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	LanguageRust: {
		"\nfn ", "\nconst ", "\nlet ", "\nif ", "\nwhile ",
		"\nfor ", "\nloop ", "\nmatch ", "\nconst ",
		"\n\n", "\n", " ", "",
	},
}

// Params controls a single split.
type Params struct {
	Size     int
	Overlap  int
	Language Language
}

// SeparatorsFor returns the separator list for lang, falling back to DefaultSeparators.
func SeparatorsFor(lang Language) []string {
	if seps, ok := languageSeparators[lang]; ok {
		return append([]string(nil), seps...)
	}
	return append([]string(nil), DefaultSeparators...)
}

// Recursive splits text with langchaingo's RecursiveCharacter splitter.
type Recursive struct{}

// New returns a Recursive splitter.
func New() *Recursive {
	return &Recursive{}
}

// Split returns the chunks of text for p. Whitespace-only text has no chunks.
func (r *Recursive) Split(text string, p Params) ([]string, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidParams, p.Size)
	}
	if p.Overlap < 0 || p.Overlap >= p.Size {
		return nil, fmt.Errorf("%w: overlap %d with chunk size %d", ErrInvalidParams, p.Overlap, p.Size)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.Size),
		textsplitter.WithChunkOverlap(p.Overlap),
		textsplitter.WithSeparators(SeparatorsFor(p.Language)),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
		textsplitter.WithKeepSeparator(p.Language != LanguageNone),
	)
	parts, err := ts.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks, nil
}

// Split is a shorthand for New().Split.
func Split(text string, p Params) ([]string, error) {
	return New().Split(text, p)
}
