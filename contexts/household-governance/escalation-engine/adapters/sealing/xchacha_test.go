package sealing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXChaChaRoundTripIsTenantBound(t *testing.T) {
	ctx := context.Background()
	sealer, err := NewXChaCha(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := sealer.Seal(ctx, "tenant-1", []byte("account 1234"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "account 1234")

	again, err := sealer.Seal(ctx, "tenant-1", []byte("account 1234"))
	require.NoError(t, err)
	require.NotEqual(t, sealed, again)

	opened, err := sealer.Open(ctx, "tenant-1", sealed)
	require.NoError(t, err)
	require.Equal(t, "account 1234", string(opened))

	_, err = sealer.Open(ctx, "tenant-2", sealed)
	require.ErrorIs(t, err, ErrOpenFailed)

	_, err = sealer.Open(ctx, "tenant-1", sealed[:10])
	require.ErrorIs(t, err, ErrSealedTooShort)

	other, err := NewXChaCha(bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)
	_, err = other.Open(ctx, "tenant-1", sealed)
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestXChaChaRejectsShortKeys(t *testing.T) {
	_, err := NewXChaCha([]byte("short"))
	require.ErrorIs(t, err, ErrMasterKeySize)
}

func TestUnsealedCopiesPayload(t *testing.T) {
	payload := []byte("plain")
	opened, err := Unsealed{}.Open(context.Background(), "tenant-1", payload)
	require.NoError(t, err)
	opened[0] = 'P'
	require.Equal(t, "plain", string(payload))
}
