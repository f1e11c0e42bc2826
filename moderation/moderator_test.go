package moderation

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewModerator(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator(nil, '*')
	req.ErrorIs(err, errors.ErrEmptyCensoredWords)

	moderator, err := NewModerator([]string{"bad"}, '*')
	req.NoError(err)
	req.NotNil(moderator)
}

func TestModerator_Censor(t *testing.T) {
	newModerator := func(t *testing.T, words ...string) *Moderator {
		t.Helper()
		moderator, err := NewModerator(words, '*')
		require.NoError(t, err)
		return moderator
	}

	t.Run("should replace a plain occurrence", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "badword")

		censored := moderator.Censor("this is a badword here")

		req.Equal("this is a ******* here", censored)
	})

	t.Run("should be case-insensitive", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "badword")

		censored := moderator.Censor("BaDWoRd")

		req.Equal("*******", censored)
	})

	t.Run("should catch words split by separators", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "bad")

		censored := moderator.Censor("b a d")

		req.NotContains(censored, "b")
		req.NotContains(censored, "d")
	})

	t.Run("should leave clean text untouched", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "badword")

		text := "a perfectly fine sentence"
		req.Equal(text, moderator.Censor(text))
	})

	t.Run("should censor several words independently", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "foo", "bar")

		censored := moderator.Censor("foo then bar")

		req.NotContains(censored, "foo")
		req.NotContains(censored, "bar")
		req.Contains(censored, "then")
	})

	t.Run("should handle text with no letters", func(t *testing.T) {
		req := require.New(t)
		moderator := newModerator(t, "bad")

		req.Equal("!!! ...", moderator.Censor("!!! ..."))
	})
}
