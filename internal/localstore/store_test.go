package localstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/internal/localstore"
	"github.com/fasilahammed/snapmob-client/pkg/auth"
	"github.com/fasilahammed/snapmob-client/pkg/config"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
)

func openStore(t *testing.T, path string) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(context.Background(), config.StateConfig{DBPath: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoadSessionWhenEmpty(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	token, session, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, session)
}

func TestSaveAndLoadSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)

	saved := &auth.Session{
		UserID:      "u-1",
		Email:       "fasil@example.com",
		Role:        enums.UserRoleUser,
		DisplayName: "Fasil",
		TokenExpiry: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveSession(context.Background(), "token-abc", saved))

	token, loaded, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.UserID, loaded.UserID)
	assert.Equal(t, saved.Role, loaded.Role)
	assert.True(t, saved.TokenExpiry.Equal(loaded.TokenExpiry))
}

func TestSaveSessionReplacesPreviousRow(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	first := &auth.Session{UserID: "u-1", Role: enums.UserRoleUser}
	second := &auth.Session{UserID: "u-2", Role: enums.UserRoleAdmin}
	require.NoError(t, store.SaveSession(context.Background(), "t-1", first))
	require.NoError(t, store.SaveSession(context.Background(), "t-2", second))

	token, loaded, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-2", token)
	assert.Equal(t, "u-2", loaded.UserID)
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)
	require.NoError(t, store.SaveSession(context.Background(), "t-1", &auth.Session{
		UserID: "u-1",
		Role:   enums.UserRoleUser,
	}))
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	token, loaded, err := reopened.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-1", token)
	assert.Equal(t, "u-1", loaded.UserID)
}

func TestClearSession(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, store.SaveSession(context.Background(), "t-1", &auth.Session{
		UserID: "u-1",
		Role:   enums.UserRoleUser,
	}))

	require.NoError(t, store.ClearSession(context.Background()))

	token, session, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, session)

	// Clearing twice is a no-op.
	require.NoError(t, store.ClearSession(context.Background()))
}

func TestSaveSessionRejectsIncompleteInput(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	require.Error(t, store.SaveSession(context.Background(), "", &auth.Session{UserID: "u-1"}))
	require.Error(t, store.SaveSession(context.Background(), "t-1", nil))
}
