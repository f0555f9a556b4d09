package rpc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOkString(t *testing.T) {
	res, err := Parse(`{:ok, "abc"}`)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "abc", res.Value)
	assert.False(t, res.IsUUID())
}

func TestParseErrorAtom(t *testing.T) {
	res, err := Parse(`{:error, not_found}`)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "not_found", res.Atom)

	res, err = Parse(" {:error,:game_running}\n")
	require.NoError(t, err)
	assert.True(t, res.FailedWith("game_running"))
}

func TestParseOkUUID(t *testing.T) {
	res, err := Parse(`{:ok,"11111111-1111-1111-1111-111111111111"}`)
	require.NoError(t, err)
	assert.True(t, res.IsUUID())
	assert.Equal(t, uuid.MustParse("11111111-1111-1111-1111-111111111111"), res.UUID)
}

func TestParseToleratesWhitespace(t *testing.T) {
	res, err := Parse("  {  :ok  ,  \"a b\"  }  ")
	require.NoError(t, err)
	assert.Equal(t, "a b", res.Value)
}

func TestParseHexLikeStringIsNotUUID(t *testing.T) {
	res, err := Parse(`{:ok, "deadbeef"}`)
	require.NoError(t, err)
	assert.False(t, res.IsUUID())
	assert.Equal(t, "deadbeef", res.Value)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{
		`{:ok}`,
		`{:ok, abc}`,
		`{:ok, ""}`,
		`{:error, }`,
		`{:maybe, "x"}`,
		`:ok`,
		`{:ok, "abc"`,
		`{:ok, "abc"} extra`,
		``,
	} {
		_, err := Parse(input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, ErrProtocol, input)

		var perr *ParseError
		assert.ErrorAs(t, err, &perr, input)
	}
}
