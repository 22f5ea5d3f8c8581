package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kit-telegram/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "", "")
	require.NoError(t, err)
	return s
}

func TestNewCreatesDocuments(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "paid_users.json"), s.UsersPath())
	assert.Equal(t, filepath.Join(dir, "kit_assets.json"), s.AssetsPath())
	assert.FileExists(t, s.UsersPath())
	assert.FileExists(t, s.AssetsPath())
	assert.Empty(t, s.Users())
	assert.Empty(t, s.Assets())
}

func TestSavePendingKeepsVerification(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePending(42, "alice"))
	rec, ok := s.User(42)
	require.True(t, ok)
	assert.Equal(t, "alice", rec.Username)
	assert.False(t, rec.Verified)

	require.NoError(t, s.MarkVerified(42, "alice"))
	require.NoError(t, s.SavePending(42, "alice_renamed"))

	rec, _ = s.User(42)
	assert.True(t, rec.Verified, "a repeat payment attempt must not drop verification")
	assert.Equal(t, "alice_renamed", rec.Username)
}

func TestMarkVerifiedIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.MarkVerified(42, "alice"))
	rec, _ := s.User(42)
	first := rec.PurchaseDate
	require.NotEmpty(t, first)

	require.NoError(t, s.MarkVerified(42, "alice"))
	rec, _ = s.User(42)
	assert.Equal(t, first, rec.PurchaseDate, "re-approval must not move the purchase date")
	assert.True(t, s.IsVerified(42))
}

func TestRemoveUser(t *testing.T) {
	s := newTestStore(t)

	removed, err := s.RemoveUser(42)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.MarkVerified(42, "alice"))
	removed, err = s.RemoveUser(42)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.IsVerified(42))
}

func TestClearAndSnapshot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.MarkVerified(1, "a"))
	require.NoError(t, s.SavePending(2, "b"))

	name, err := s.SnapshotUsers()
	require.NoError(t, err)
	assert.FileExists(t, name)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Users())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	var snap map[string]*models.UserRecord
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Len(t, snap, 2, "snapshot keeps the pre-clear ledger")
}

func TestUserCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.UserCache(42, "prompts_file_id"))

	require.NoError(t, s.SetUserCache(42, "prompts_file_id", "BQAC_file"))
	assert.Equal(t, "BQAC_file", s.UserCache(42, "prompts_file_id"))
	assert.Empty(t, s.UserCache(42, "guide_file_id"))

	// Caching for an unknown user creates a minimal unverified record.
	rec, ok := s.User(42)
	require.True(t, ok)
	assert.False(t, rec.Verified)
}

func TestDemoUsageRoundTrip(t *testing.T) {
	s := newTestStore(t)

	assert.Zero(t, s.DemoUsage(42))

	usage := models.DemoUsage{Date: "2026-09-01", Count: 3, LastTS: 1756700000}
	require.NoError(t, s.SaveDemoUsage(42, usage))
	assert.Equal(t, usage, s.DemoUsage(42))
}

func TestLoadSelfHeals(t *testing.T) {
	s := newTestStore(t)

	// Corrupt ledger reads as empty instead of failing.
	require.NoError(t, os.WriteFile(s.UsersPath(), []byte("{broken"), 0o644))
	assert.Empty(t, s.Users())

	// Records with holes get their defaults back.
	raw := `{"1": {"verified": true}, "2": null}`
	require.NoError(t, os.WriteFile(s.UsersPath(), []byte(raw), 0o644))
	users := s.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "unknown", users["1"].Username)
	assert.NotNil(t, users["1"].Cache)
}

func TestAssetFileID(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.AssetFileID(models.AssetPrompts))

	require.NoError(t, s.SetAssetFileID(models.AssetPrompts, "BQAC_prompts"))
	assert.Equal(t, "BQAC_prompts", s.AssetFileID(models.AssetPrompts))

	assets := s.Assets()
	require.Contains(t, assets, models.AssetPrompts)
	assert.NotEmpty(t, assets[models.AssetPrompts].UpdatedAt)

	// Entries without a file_id are dropped on load.
	raw := `{"guide": {"file_id": ""}, "prompts": {"file_id": "BQAC_prompts"}}`
	require.NoError(t, os.WriteFile(s.AssetsPath(), []byte(raw), 0o644))
	assert.Empty(t, s.AssetFileID(models.AssetGuide))
	assert.Equal(t, "BQAC_prompts", s.AssetFileID(models.AssetPrompts))
}
