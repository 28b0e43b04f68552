package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrEmptyAudio is returned by Save when the stream carries no bytes.
var ErrEmptyAudio = errors.New("audio stream is empty")

// DefaultExt is the container assumed for uploaded recordings.
const DefaultExt = ".webm"

// TempAudio writes uploaded audio to uniquely named files that live only as
// long as the request handling them.
type TempAudio struct {
	dir    string
	ext    string
	active atomic.Int64
}

// NewTempAudio creates a store rooted at dir (os.TempDir() when empty).
// The directory is created on first use.
func NewTempAudio(dir, ext string) *TempAudio {
	if dir == "" {
		dir = os.TempDir()
	}
	if ext == "" {
		ext = DefaultExt
	}
	return &TempAudio{dir: dir, ext: ext}
}

// Dir returns the directory holding the artifacts.
func (s *TempAudio) Dir() string { return s.dir }

// Active returns the number of saved files not yet released.
func (s *TempAudio) Active() int64 { return s.active.Load() }

// Save copies src to a new file named audio_<uuid><ext> and returns its path
// with a release func that removes it. The caller must call release on every
// path; calling it more than once is safe.
func (s *TempAudio) Save(src io.Reader) (string, func() error, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	path := filepath.Join(s.dir, "audio_"+uuid.NewString()+s.ext)
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp audio file: %w", err)
	}

	n, copyErr := out.ReadFrom(src)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && n == 0 {
		copyErr = ErrEmptyAudio
	}
	if copyErr != nil {
		_ = os.Remove(path)
		if errors.Is(copyErr, ErrEmptyAudio) {
			return "", nil, ErrEmptyAudio
		}
		return "", nil, fmt.Errorf("failed to write temp audio file: %w", copyErr)
	}

	s.active.Add(1)
	var once sync.Once
	var releaseErr error
	release := func() error {
		once.Do(func() {
			s.active.Add(-1)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				releaseErr = fmt.Errorf("failed to remove temp audio file: %w", err)
			}
		})
		return releaseErr
	}
	return path, release, nil
}
