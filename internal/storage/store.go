// Package storage persists snapshots. FileStore keeps the root document on
// local disk; AutoSaver batches board changes into debounced saves.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/npratt/okline/internal/model"
)

// Store loads and saves the root document.
type Store interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}

// Format is the on-disk encoding of a snapshot.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", model.ErrInvalidOperation, s)
	}
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode renders v in the given format. JSON is indented with two spaces
// and ends with a newline.
func Encode(v any, f Format) ([]byte, error) {
	if f == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a snapshot in the given format and validates it.
func Decode(data []byte, f Format) (*model.Snapshot, error) {
	snap, err := parse(data, f)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func parse(data []byte, f Format) (*model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &snap)
	} else {
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	normalize(&snap)
	return &snap, nil
}

// normalize fills in the collections a hand-edited or older document may
// omit.
func normalize(s *model.Snapshot) {
	if s.Version == "" {
		s.Version = model.CurrentVersion
	}
	if s.Memo == nil {
		s.Memo = []model.MemoNode{}
	}
	if s.Groups == nil {
		s.Groups = []model.TimelineGroup{}
	}
	if s.Metadata.SyncStatus == "" {
		s.Metadata.SyncStatus = model.SyncPending
	}
}

// ErrCorrupt is returned by Load when the data file cannot be parsed. The
// unreadable file has been moved aside to <path>.backup.
var ErrCorrupt = errors.New("corrupt data file")

// FileStore keeps the snapshot in a single local file.
type FileStore struct {
	path   string
	format Format
	logger *slog.Logger
}

// NewFileStore returns a store for path; the format follows the extension.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, format: FormatForPath(path), logger: logger}
}

// Path returns the data file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// Load reads the snapshot. A missing file yields an empty snapshot. A file
// that does not parse is backed up and ErrCorrupt is returned; a file that
// parses but violates graph invariants is left in place and the validation
// error is returned.
func (s *FileStore) Load(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Debug("no data file, starting empty", "path", s.path)
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	snap, err := parse(data, s.format)
	if err != nil {
		backup := s.path + ".backup"
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			s.logger.Warn("data file corrupted, failed to backup",
				"path", s.path,
				"error", err,
				"backup_error", renameErr)
		} else {
			s.logger.Warn("data file corrupted, backed up",
				"path", s.path,
				"backup", backup,
				"error", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return s.check(snap)
}

// Peek reads the data file like Load but never moves it aside. A missing
// file is reported as os.ErrNotExist and an unparsable one as ErrCorrupt.
// Readers that may catch the file mid-write use this.
func (s *FileStore) Peek(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	snap, err := parse(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return s.check(snap)
}

// check validates a parsed snapshot and warns about a version mismatch.
func (s *FileStore) check(snap *model.Snapshot) (*model.Snapshot, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	if snap.Version != model.CurrentVersion {
		s.logger.Warn("data file version differs",
			"path", s.path,
			"file_version", snap.Version,
			"current_version", model.CurrentVersion)
	}
	return snap, nil
}

// Save writes the snapshot atomically through a temp file and rename. An
// unchanged document is not rewritten.
func (s *FileStore) Save(ctx context.Context, snap *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := Encode(snap, s.format)
	if err != nil {
		return err
	}

	if existing, err := os.ReadFile(s.path); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read data file: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename data file: %w", err)
	}
	s.logger.Debug("snapshot saved", "path", s.path, "bytes", len(data))
	return nil
}

// Update loads the snapshot, applies fn and saves the result while holding
// an exclusive lock on the data file, so concurrent CLI invocations do not
// lose each other's changes.
func (s *FileStore) Update(ctx context.Context, fn func(*model.Snapshot) (*model.Snapshot, error)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	snap, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(snap)
	if err != nil {
		return err
	}
	return s.Save(ctx, next)
}
