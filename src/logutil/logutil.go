package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const (
	LogFileName  = "win_dialog_shot.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup sends logs to stdout and, when enabled, also to a size-rotated
// win_dialog_shot.log in the working directory (10MB, max 3 archives).
func Setup(enableFileLogging bool) {
	SetupWriter(os.Stdout, enableFileLogging, LogFileName)
}

// SetupWriter is Setup with an explicit console writer and log path.
func SetupWriter(console io.Writer, enableFileLogging bool, path string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(console)
		return
	}
	w, err := newRotatingWriter(path, maxSizeBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		log.SetOutput(console)
		return
	}
	log.SetOutput(io.MultiWriter(console, w))
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	max  int64
	f    *os.File
}

func newRotatingWriter(path string, max int64) (*rotatingWriter, error) {
	rotateIfNeeded(path, max)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, max: max, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.max {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func rotateIfNeeded(path string, max int64) {
	if st, err := os.Stat(path); err == nil && st.Size() > max {
		rotate(path)
	}
}

// rotate shifts path -> .1 -> .2 -> .3; the oldest archive is discarded.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
