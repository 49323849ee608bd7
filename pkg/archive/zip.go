package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Entries keep a fixed timestamp so an archive of identical files is itself
// reproducible.
var entryModTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteZip bundles the named files into a ZIP at zipPath. Entries are stored
// flat at the archive root in the given order; a repeated base name is
// written once (later duplicates point at the same on-disk file).
func WriteZip(zipPath string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	seen := make(map[string]bool)
	for _, file := range files {
		name := filepath.Base(file)
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := addFile(w, file, name); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func addFile(w *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q for archiving: %w", path, err)
	}
	defer f.Close()

	entry, err := w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryModTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry %q: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	return nil
}
