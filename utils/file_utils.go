package utils

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var trackPrefix = regexp.MustCompile(`(?i)^[0-9]{1,3}[-_. ]+`)

// DeriveTitleFromFilename turns "03 - my_song.mp3" into "my song".
func DeriveTitleFromFilename(filePath string) string {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	base = trackPrefix.ReplaceAllString(base, "")
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	fields := strings.Fields(base)
	if len(fields) == 0 {
		return base
	}
	return strings.Join(fields, " ")
}

// HasExtension reports whether path ends in ext, ignoring case.
func HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

func ValidateAudioFile(filePath, ext string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filePath)
	}
	if !HasExtension(filePath, ext) {
		return fmt.Errorf("file is not a %s file: %s", ext, filePath)
	}
	return nil
}

// FindAudioFiles lists files under dir whose extension matches ext. Without
// recursive only dir itself is searched. Results are in lexical order.
func FindAudioFiles(dir, ext string, recursive bool) ([]string, error) {
	var files []string

	walkFunc := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if HasExtension(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	}

	err := filepath.WalkDir(dir, walkFunc)
	return files, err
}

// WriteFileAtomic replaces path with data. The data goes to a temporary file
// in the same directory, is synced and then renamed over path, so readers
// see either the old or the new content. With preserveModTime the previous
// modification time is restored after the rename.
func WriteFileAtomic(path string, data []byte, preserveModTime bool) error {
	return replaceFile(path, preserveModTime, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFile copies src to dst through a temporary file.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	return replaceFile(dst, false, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

func replaceFile(path string, preserveModTime bool, fill func(io.Writer) error) error {
	mode := fs.FileMode(0o644)
	var origInfo fs.FileInfo
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		origInfo = info
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), ".tagbatch-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if err := fill(tempFile); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}
	success = true

	if preserveModTime && origInfo != nil {
		_ = os.Chtimes(path, origInfo.ModTime(), origInfo.ModTime())
	}
	return nil
}
