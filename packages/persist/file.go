package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// DefaultLockTimeout bounds how long Save and Open wait for another
// process holding the file
const DefaultLockTimeout = 5 * time.Second

const lockRetryDelay = 100 * time.Millisecond

// ErrLockTimeout is returned when the lock on a file could not be taken in
// time
var ErrLockTimeout = errors.New("timeout waiting for spreadsheet lock")

// CodecFor picks the codec for path by its extension
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return XMLCodec{}, nil
	case ".xlsx":
		return XLSXCodec{}, nil
	}
	return nil, fmt.Errorf("unsupported spreadsheet file extension %q (want .xml or .xlsx)", filepath.Ext(path))
}

// FileStore saves and opens spreadsheets on disk. writers hold an
// exclusive lock on <path>.lock, readers a shared one.
type FileStore struct {
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// NewFileStore creates a file store with the default lock timeout
func NewFileStore(logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{LockTimeout: DefaultLockTimeout, Logger: logger}
}

// Save writes s to path and marks it saved. the file is replaced
// atomically so readers never observe a partial document.
func (fs *FileStore) Save(ctx context.Context, path string, s *spreadsheet.Spreadsheet) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Write(&buf, codec, s); err != nil {
		return err
	}

	lock, err := fs.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	s.MarkSaved()
	fs.Logger.Info("spreadsheet saved", "path", path, "cells", len(s.GetNonemptyCellNames()))
	return nil
}

// Open reads the spreadsheet at path, see Read
func (fs *FileStore) Open(ctx context.Context, path string, policy spreadsheet.NamePolicy, opts ...spreadsheet.Option) (*spreadsheet.Spreadsheet, error) {
	doc, err := fs.ReadDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	s, err := Read(doc, policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fs.Logger.Debug("spreadsheet opened", "path", path, "cells", len(doc.Cells))
	return s, nil
}

// ReadDocument decodes the document at path under a shared lock without
// building a spreadsheet
func (fs *FileStore) ReadDocument(ctx context.Context, path string) (*Document, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}

	lock, err := fs.lock(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func (fs *FileStore) lock(ctx context.Context, path string, exclusive bool) (*flock.Flock, error) {
	lockPath := path + ".lock"

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	timeout := fs.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(lockPath)
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && !locked) {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	return lock, nil
}
