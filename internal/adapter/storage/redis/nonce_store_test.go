package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDigest = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestNonceStore_FirstUse(t *testing.T) {
	s, client := newMiniClient(t)
	store := NewNonceStore(client)

	ok, err := store.CheckAndSet(context.Background(), "login:alice.testnet", testDigest, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Exists("nonce:login:alice.testnet:"+testDigest))
	assert.Equal(t, 10*time.Minute, s.TTL("nonce:login:alice.testnet:"+testDigest))
}

func TestNonceStore_Replay(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewNonceStore(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, "login:alice.testnet", testDigest, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CheckAndSet(ctx, "login:alice.testnet", testDigest, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second use of the same payload is a replay")
}

func TestNonceStore_ScopesAreIndependent(t *testing.T) {
	_, client := newMiniClient(t)
	store := NewNonceStore(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, "register:alice.testnet", testDigest, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CheckAndSet(ctx, "login:alice.testnet", testDigest, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "login after register with the same payload is a different scope")
}

func TestNonceStore_Expired(t *testing.T) {
	s, client := newMiniClient(t)
	store := NewNonceStore(client)
	ctx := context.Background()

	ok, err := store.CheckAndSet(ctx, "login:bob.near", testDigest, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = store.CheckAndSet(ctx, "login:bob.near", testDigest, time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired record no longer blocks")
}

func TestNonceStore_ServerDown(t *testing.T) {
	s, client := newMiniClient(t)
	store := NewNonceStore(client)
	s.Close()

	ok, err := store.CheckAndSet(context.Background(), "login:bob.near", testDigest, time.Second)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "redis nonce check")
}
