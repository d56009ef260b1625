// Package catalog discovers the regular files under a build output
// directory and narrows them to the set eligible for compression.
package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// File describes one regular file found under the scanned root.
type File struct {
	Path    string // absolute path
	RelPath string // path relative to the scanned root
	Size    int64
	ModTime time.Time
}

// Scanner lists regular files under a root directory.
type Scanner struct {
	log *logrus.Logger
}

// NewScanner returns a Scanner that reports unreadable entries on the
// given logger.
func NewScanner(log *logrus.Logger) *Scanner {
	return &Scanner{log: log}
}

// ListFiles recursively collects the regular files under root, in
// lexical walk order. Symbolic links are not followed. A missing root
// yields an empty list and no error: a build that produced no output
// is not this component's concern. An unreadable root is a genuine
// discovery failure and is returned as one.
func (s *Scanner) ListFiles(root string) ([]File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absRoot); os.IsNotExist(err) {
		s.log.Debugf("Output directory does not exist, nothing to compress: %s", absRoot)
		return nil, nil
	}

	var files []File
	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			s.log.Warnf("Error accessing path %s: %v", path, err)
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.log.Warnf("Error reading file info for %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = entry.Name()
		}

		files = append(files, File{
			Path:    path,
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
