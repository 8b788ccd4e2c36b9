// Package transcript persists conversation results and consolidated sessions
// as JSON files, optionally gzip-compressed.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/qamaster/personaqa/internal/models"
)

const (
	jsonExt = ".json"
	gzipExt = ".json.gz"
)

// unsafeChars matches characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

func ext(compress bool) string {
	if compress {
		return gzipExt
	}
	return jsonExt
}

// Filename returns the transcript filename for a single conversation.
func Filename(personaID, testID string, ts time.Time, compress bool) string {
	return fmt.Sprintf("%s-%s-%s%s", sanitizeName(personaID), sanitizeName(testID), ts.Format("20060102-150405"), ext(compress))
}

// SessionFilename returns the filename for a consolidated session.
func SessionFilename(sessionID string, ts time.Time, compress bool) string {
	return fmt.Sprintf("%s-%s%s", sanitizeName(sessionID), ts.Format("20060102-150405"), ext(compress))
}

// Write serializes a TestResult and writes it to dir.
func Write(dir string, r *models.TestResult, compress bool) (string, error) {
	return writeJSON(dir, Filename(r.PersonaID, r.TestID, r.StartTime, compress), r, compress)
}

// WriteSession serializes a ConsolidatedSession and writes it to dir.
func WriteSession(dir string, s *models.ConsolidatedSession, compress bool) (string, error) {
	return writeJSON(dir, SessionFilename(s.SessionID, s.StartTime, compress), s, compress)
}

// Read loads a TestResult written by Write, compressed or not.
func Read(path string) (*models.TestResult, error) {
	var r models.TestResult
	if err := readJSON(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadSession loads a ConsolidatedSession written by WriteSession.
func ReadSession(path string) (*models.ConsolidatedSession, error) {
	var s models.ConsolidatedSession
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Writer writes one transcript per finished conversation.
type Writer struct {
	Dir  string
	Gzip bool
}

func (w Writer) WriteResult(r *models.TestResult) (string, error) {
	return Write(w.Dir, r, w.Gzip)
}

func writeJSON(dir, name string, v any, compress bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return "", fmt.Errorf("compress transcript: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("compress transcript: %w", err)
		}
		data = buf.Bytes()
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	// gzip magic number
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decompress transcript %s: %w", path, err)
		}
		defer zr.Close()

		if data, err = io.ReadAll(zr); err != nil {
			return fmt.Errorf("decompress transcript %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return nil
}
