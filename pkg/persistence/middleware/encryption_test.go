package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/branchflow/pkg/adapters/memory"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/persistence/middleware"
	"github.com/aretw0/branchflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretFlow() domain.Flow {
	return domain.Flow{Nodes: []domain.FlowNode{{
		ID: "1", Kind: domain.NodeKindStart, Text: "my-secret-sauce",
		Options: []domain.Option{{Label: "go", TargetID: "2"}},
	}}}
}

func encrypted(t *testing.T, next ports.FlowStore, cfg middleware.EncryptionConfig) ports.FlowStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunFlowStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "f", secretFlow()))

	stored, err := underlying.Load(ctx, "f")
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 1)
	assert.Equal(t, middleware.EnvelopeNodeID, stored.Nodes[0].ID)
	assert.NotContains(t, stored.Nodes[0].Text, "my-secret-sauce")

	loaded, err := secure.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, secretFlow(), loaded)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, ids)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "f", secretFlow()))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Nodes[0].Text)

	require.NoError(t, newStore.Save(ctx, "f", loaded))
	_, err = oldStore.Load(ctx, "f")
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncryptionMiddleware_RejectsPlainFlow(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", secretFlow()))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.FlowStore) ports.FlowStore {
			return recordingStore{FlowStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "f", secretFlow()))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recordingStore struct {
	ports.FlowStore
	name  string
	calls *[]string
}

func (r recordingStore) Save(ctx context.Context, flowID string, flow domain.Flow) error {
	*r.calls = append(*r.calls, r.name)
	return r.FlowStore.Save(ctx, flowID, flow)
}
