package moderation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"remarks/errors"
)

func TestCensor(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"secret", "scandale"}, '*')
	req.NoError(err)

	t.Run("should mask a plain match", func(t *testing.T) {
		req.Equal("this is ****** business", moderator.Censor("this is secret business"))
	})

	t.Run("should mask regardless of case", func(t *testing.T) {
		req.Equal("******!", moderator.Censor("SeCrEt!"))
	})

	t.Run("should catch spaced-out variants", func(t *testing.T) {
		req.Equal("***********", moderator.Censor("s e c r e t"))
	})

	t.Run("should leave clean text alone", func(t *testing.T) {
		req.Equal("nothing to see here", moderator.Censor("nothing to see here"))
	})

	t.Run("should leave empty text alone", func(t *testing.T) {
		req.Equal("", moderator.Censor(""))
	})
}

func TestNewModerator_EmptyList(t *testing.T) {
	_, err := NewModerator(nil, '*')
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "words.txt")
	req.NoError(os.WriteFile(path, []byte("# comment\nsecret\n\nscandale\n"), 0o600))

	words, err := LoadWords(path)
	req.NoError(err)
	req.Equal([]string{"secret", "scandale"}, words)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	req.NoError(os.WriteFile(empty, []byte("# nothing\n"), 0o600))
	_, err = LoadWords(empty)
	req.ErrorIs(err, errors.ErrEmptyWords)
}
