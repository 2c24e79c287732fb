package splitter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextIsOneChunk(t *testing.T) {
	chunks, err := New().Split("hello", Params{Size: 800, Overlap: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestSplitBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := New().Split(text, Params{Size: 800, Overlap: 100})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplitInvalidParams(t *testing.T) {
	cases := []Params{
		{Size: 0, Overlap: 0},
		{Size: -1, Overlap: 0},
		{Size: 100, Overlap: 100},
		{Size: 100, Overlap: -5},
	}
	for i, p := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := New().Split("some text", p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 40; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("Paragraph %d describes how the deploy pipeline works.", i))
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks, err := New().Split(text, Params{Size: 200, Overlap: 20})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 200)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
	assert.Contains(t, chunks[0], "Paragraph 0")
	assert.Contains(t, chunks[len(chunks)-1], "Paragraph 39")
}

func TestSplitPythonSource(t *testing.T) {
	src := "def f(): pass"
	chunks, err := New().Split(src, Params{Size: 400, Overlap: 50, Language: LanguagePython})
	require.NoError(t, err)
	assert.Equal(t, []string{"def f(): pass"}, chunks)
}

func TestSeparatorsFor(t *testing.T) {
	assert.Equal(t, DefaultSeparators, SeparatorsFor(LanguageNone))
	assert.Equal(t, DefaultSeparators, SeparatorsFor(Language("cobol")))
	assert.Equal(t, "\nfunc ", SeparatorsFor(LanguageGo)[0])
	assert.Equal(t, "\nclass ", SeparatorsFor(LanguagePython)[0])
	assert.Equal(t, "\nfn ", SeparatorsFor(LanguageRust)[0])

	for _, lang := range []Language{LanguagePython, LanguageGo, LanguageJS, LanguageTS, LanguageJava, LanguageRust} {
		seps := SeparatorsFor(lang)
		assert.Equal(t, "", seps[len(seps)-1], "language %s must end with the character separator", lang)
	}
}

func TestSeparatorsForReturnsCopy(t *testing.T) {
	seps := SeparatorsFor(LanguageGo)
	seps[0] = "mutated"
	assert.Equal(t, "\nfunc ", SeparatorsFor(LanguageGo)[0])
}
