package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFileWriter appends to one log file per day and switches files when the
// date changes.
type DailyFileWriter struct {
	mutex           sync.Mutex
	logDir          string
	prefix          string
	currentFile     *os.File
	currentFileName string
	now             func() time.Time
}

func NewDailyFileWriter(logDir, prefix string) (*DailyFileWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &DailyFileWriter{
		logDir: logDir,
		prefix: prefix,
		now:    time.Now,
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}

	return w, nil
}

// rotateIfNeeded must be called with the mutex held.
func (w *DailyFileWriter) rotateIfNeeded() error {
	fileName := fmt.Sprintf("%s-%s.log", w.prefix, w.now().Format("2006-01-02"))
	if fileName == w.currentFileName {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(w.logDir, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if w.currentFile != nil {
		w.currentFile.Close()
	}
	w.currentFile = f
	w.currentFileName = fileName
	return nil
}

func (w *DailyFileWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.currentFile.Write(p)
}

// CurrentFileName returns the name of the file being written to.
func (w *DailyFileWriter) CurrentFileName() string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.currentFileName
}

func (w *DailyFileWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.currentFile == nil {
		return nil
	}
	err := w.currentFile.Close()
	w.currentFile = nil
	w.currentFileName = ""
	return err
}
