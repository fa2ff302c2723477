package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveStreamOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	key := UploadKey("os-notes.pdf", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	saved, err := store.SaveStream(key, strings.NewReader("%PDF-1.4 payload"))
	require.NoError(t, err)
	require.Equal(t, key, saved)

	file, err := store.Open(key)
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 payload", string(data))

	require.NoError(t, store.Delete(key))
	_, err = store.Open(key)
	require.Error(t, err)

	// deleting a missing key is not an error
	require.NoError(t, store.Delete(key))
}

func TestLocalStorageURL(t *testing.T) {
	withBase, err := NewLocalStorage(t.TempDir(), "/files/")
	require.NoError(t, err)
	require.Equal(t, "/files/uploads/1_a.pdf", withBase.URL("uploads/1_a.pdf"))

	bare, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	require.Equal(t, "/uploads/1_a.pdf", bare.URL("uploads/1_a.pdf"))
}

func TestUploadKeyQualifiesByTime(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	require.Equal(t, "uploads/1700000000000_notes.pdf", UploadKey("../evil/notes.pdf", at))
}
