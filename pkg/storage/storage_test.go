package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "off-1/job-1/schedule.html")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "off-1/job-1/schedule.html", path)
	assert.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("job-1", "a/b.html")
	require.NoError(t, err)
	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, _, _, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	jobID, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "a/b.html")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, _, _, err = signer.Parse("no-dot", false)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestSiteStorageRoundTripAndCleanup(t *testing.T) {
	store, err := NewSiteStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("off-1/job-1/schedule.html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "off-1/job-1/schedule.html", rel)

	f, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = store.Save("../escape.html", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), "off-1", "job-1", "schedule.html"), old, old))
	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"off-1/job-1/schedule.html"}, removed)
	_, err = os.Stat(filepath.Join(store.Root(), "off-1"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete("missing.html"))
}
