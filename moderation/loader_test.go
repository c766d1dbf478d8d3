package moderation

import (
	"embed"
	"testing"

	"chat-hub/errors"

	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testDictionaries embed.FS

func TestLoadAllMergesLanguageFiles(t *testing.T) {
	req := require.New(t)

	// Given dictionaries for two languages, with duplicates and CRLF endings
	loader := NewDictionaryLoader(testDictionaries)

	// When loading them all
	dictionary, err := loader.LoadAll("testdata/dicts")

	// Then words are deduplicated across files and languages tracked
	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, dictionary.Languages)
	req.ElementsMatch([]string{"viper", "wolverine", "vipere", "mustelide"}, dictionary.Words)
}

func TestLoadAllRejectsBlankDictionaries(t *testing.T) {
	req := require.New(t)

	loader := NewDictionaryLoader(testDictionaries)

	_, err := loader.LoadAll("testdata/blank")
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestLoadAllFailsOnMissingDirectory(t *testing.T) {
	req := require.New(t)

	loader := NewDictionaryLoader(testDictionaries)

	_, err := loader.LoadAll("testdata/nowhere")
	req.Error(err)
}
