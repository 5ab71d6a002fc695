package generator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/automigrate/history"
)

// WriteMigration saves the migration as a YAML artifact in dir and returns
// the file path. Existing artifacts are never overwritten.
func WriteMigration(dir string, m *history.Migration, now time.Time) (string, error) {
	// Ensure migrations folder exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations folder: %w", err)
	}

	content, err := Render(m, now)
	if err != nil {
		return "", err
	}

	filename := filepath.Join(dir, m.FileName())
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("migration %s already exists", filename)
	}
	if err != nil {
		return "", fmt.Errorf("creating migration file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return filename, nil
}

// Render produces the artifact bytes: a comment header listing the
// operations followed by the YAML document.
func Render(m *history.Migration, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Migration: %s\n", m.Name)
	fmt.Fprintf(&buf, "# Generated: %s\n", now.Format(time.RFC3339))
	for _, op := range m.Operations {
		fmt.Fprintf(&buf, "#   - %s\n", op)
	}
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding migration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding migration: %w", err)
	}
	return buf.Bytes(), nil
}
