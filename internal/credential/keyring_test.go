package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	_, err := s.Get("userToken")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("userToken", "abc"))
	v, err := s.Get("userToken")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete("userToken"))
	require.NoError(t, s.Delete("userToken"))

	_, err = s.Get("userToken")
	assert.ErrorIs(t, err, ErrNotFound)
}
