// Package output appends collected records to per-subreddit files.
package output

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/models"
	"github.com/pkg/errors"
)

// Writer appends batches to data/<subreddit>_<variant>.json. In array format
// every batch is one indented JSON array followed by a newline, so a file
// written more than once holds several concatenated arrays. In jsonl format
// every record is one line.
type Writer struct {
	logger  *slog.Logger
	dir     string
	variant string
	format  enums.OutputFormat
}

func NewWriter(logger *slog.Logger, dir, variant string, format enums.OutputFormat) *Writer {
	return &Writer{
		logger:  logger,
		dir:     dir,
		variant: variant,
		format:  format,
	}
}

func (w *Writer) Path(subreddit string) string {
	ext := ".json"
	if w.format == enums.OutputFormatJSONL {
		ext = ".jsonl"
	}
	return filepath.Join(w.dir, subreddit+"_"+w.variant+ext)
}

// Write appends records to path, creating the file if needed.
func (w *Writer) Write(path string, records []models.PostRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}

	buf := bufio.NewWriter(f)
	if w.format == enums.OutputFormatJSONL {
		err = writeLines(buf, records)
	} else {
		err = writeArray(buf, records)
	}
	if err == nil {
		err = buf.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	w.logger.Info("saved records", "path", path, "count", len(records))
	return nil
}

func writeArray(buf *bufio.Writer, records []models.PostRecord) error {
	if records == nil {
		records = []models.PostRecord{}
	}
	b, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	if _, err := buf.Write(b); err != nil {
		return err
	}
	return buf.WriteByte('\n')
}

func writeLines(buf *bufio.Writer, records []models.PostRecord) error {
	enc := json.NewEncoder(buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// PrepareDir creates dir and, when clearFiles is set, removes the regular files in
// it. Subdirectories are left alone.
func PrepareDir(logger *slog.Logger, dir string, clearFiles bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	if !clearFiles {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "read %s", dir)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return errors.Wrapf(err, "remove %s", entry.Name())
		}
		removed++
	}

	logger.Info("cleared data directory", "dir", dir, "removed", removed)
	return nil
}
