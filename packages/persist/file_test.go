package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func TestCodecFor(t *testing.T) {
	codec, err := CodecFor("book.XML")
	require.NoError(t, err)
	assert.IsType(t, XMLCodec{}, codec)

	codec, err = CodecFor("dir/book.xlsx")
	require.NoError(t, err)
	assert.IsType(t, XLSXCodec{}, codec)

	_, err = CodecFor("book.csv")
	assert.Error(t, err)
}

func TestFileStoreSaveOpen(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(nil)

	for _, ext := range []string{".xml", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "book"+ext)
			s := newTestSpreadsheet(t)
			require.True(t, s.Changed())

			require.NoError(t, store.Save(ctx, path, s))
			assert.False(t, s.Changed())
			assert.FileExists(t, path)

			opened, err := store.Open(ctx, path, spreadsheet.DefaultNamePolicy())
			require.NoError(t, err)
			assert.Equal(t, s.Export(), opened.Export())
			assert.False(t, opened.Changed())

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			for _, entry := range entries {
				assert.NotContains(t, entry.Name(), ".tmp")
			}
		})
	}
}

func TestFileStoreOpenMissing(t *testing.T) {
	_, err := NewFileStore(nil).Open(context.Background(), filepath.Join(t.TempDir(), "none.xml"), spreadsheet.DefaultNamePolicy())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xml")

	held := flock.New(path + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	store := NewFileStore(nil)
	store.LockTimeout = 250 * time.Millisecond

	err = store.Save(context.Background(), path, newTestSpreadsheet(t))
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.NoFileExists(t, path)
}
