package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_Subscribe(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"subscribe": ["news", "images"]}`))
	require.NoError(t, err)

	sub, ok := cmd.(SubscribeCommand)
	require.True(t, ok)
	assert.Equal(t, []string{"news", "images"}, sub.Channels)
}

func TestDecodeCommand_SubscribeEmptySet(t *testing.T) {
	// An empty array is still a subscribe — it clears the subscription set.
	cmd, err := DecodeCommand([]byte(`{"subscribe": []}`))
	require.NoError(t, err)

	sub, ok := cmd.(SubscribeCommand)
	require.True(t, ok)
	assert.Empty(t, sub.Channels)
}

func TestDecodeCommand_Refresh(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"refresh": "news"}`))
	require.NoError(t, err)

	ref, ok := cmd.(RefreshCommand)
	require.True(t, ok)
	assert.Equal(t, "news", ref.Channel)
}

func TestDecodeCommand_RefreshAll(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"refresh": "all"}`))
	require.NoError(t, err)
	assert.Equal(t, RefreshCommand{Channel: RefreshAll}, cmd)
}

func TestDecodeCommand_SubscribeWinsOverRefresh(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"subscribe": ["news"], "refresh": "reels"}`))
	require.NoError(t, err)
	_, ok := cmd.(SubscribeCommand)
	assert.True(t, ok)
}

func TestDecodeCommand_Malformed(t *testing.T) {
	_, err := DecodeCommand([]byte(`{broken`))
	assert.Error(t, err)
}

func TestDecodeCommand_UnknownShape(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"ping": 1}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = DecodeCommand([]byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
