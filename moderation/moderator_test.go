package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
			words:    []string{"badger"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
			words:    []string{"snake", "badger"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			words:    []string{"badger"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
			words:    []string{"badger"},
		},
		{
			name:     "Nothing to censor",
			input:    "Chat-Relay is amazing",
			expected: "Chat-Relay is amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			result := mod.Censor(tt.input)
			req.Equal(tt.expected, result.Content)
			req.Equal(tt.words, result.Words)
			req.Equal(len(tt.words) > 0, result.Censored())
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise next to a real word
	mod, err := NewModerator([]string{"...", ",,,", "", "badger"}, replacementChar, log)
	req.NoError(err)

	// Then the word is censored
	result := mod.Censor("The badger is safe")
	req.Equal("The ****** is safe", result.Content)
	req.Equal([]string{"badger"}, result.Words)

	// Then real noise is left alone
	result = mod.Censor("Hello ...")
	req.Equal("Hello ...", result.Content)
	req.Nil(result.Words)
}

func TestModerator_Only_Noise_Dictionary(t *testing.T) {
	_, err := NewModerator([]string{"...", " "}, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}

func TestNoop(t *testing.T) {
	result := Noop{}.Censor("badger")
	require.Equal(t, Result{Content: "badger"}, result)
}

func TestLoadDictionary(t *testing.T) {
	req := require.New(t)

	dictionary, err := LoadDictionary()

	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, dictionary.Languages)
	req.Contains(dictionary.Words, "merde")
	req.Contains(dictionary.Words, "idiot")
}

func TestLoadDictionary_Deduplicates_And_Trims(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words/en.txt":    {Data: []byte("badger\r\n  snake \n\nbadger\n")},
		"words/de.txt":    {Data: []byte("schlange\n")},
		"words/README.md": {Data: []byte("ignored")},
	}

	dictionary, err := loadDictionary(fsys, "words")

	req.NoError(err)
	req.Equal([]string{"badger", "schlange", "snake"}, dictionary.Words)
	req.ElementsMatch([]string{"en", "de"}, dictionary.Languages)
}

func TestLoadDictionary_Empty(t *testing.T) {
	_, err := loadDictionary(fstest.MapFS{"words/en.txt": {Data: []byte("\n\n")}}, "words")
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}
