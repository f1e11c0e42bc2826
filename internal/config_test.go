package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_CensoredWordList(t *testing.T) {
	req := require.New(t)

	req.Empty(Config{}.CensoredWordList())
	req.Empty(Config{CensoredWords: " , ,"}.CensoredWordList())
	req.Equal([]string{"foo", "bar"}, Config{CensoredWords: "foo, bar"}.CensoredWordList())
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("*")
	req.NoError(err)
	req.Equal('*', r)

	_, err = CharacterRune("")
	req.Error(err)

	_, err = CharacterRune("**")
	req.Error(err)
}
