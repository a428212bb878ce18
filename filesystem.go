package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// UnitMetadata is the aggregate of the eligible files under a unit.
type UnitMetadata struct {
	FileCount    int64
	TotalSize    int64
	LastModified time.Time
}

// EligibleFile is a file that belongs in a unit's archive.
type EligibleFile struct {
	Path string
	Size int64
}

// Scanner walks archive units below Root. Directories, files named in
// SkipFiles and anything whose root-relative path contains one of SkipPaths
// are not eligible.
type Scanner struct {
	fs        afero.Fs
	root      string
	skipFiles []string
	skipPaths []string
}

func NewScanner(fs afero.Fs, bc BackupConfig) *Scanner {
	return &Scanner{
		fs:        fs,
		root:      filepath.Clean(bc.Root),
		skipFiles: bc.SkipFiles,
		skipPaths: bc.SkipPaths,
	}
}

func (s *Scanner) skippedPath(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	return lo.ContainsBy(s.skipPaths, func(skip string) bool {
		return skip != "" && strings.Contains(rel, skip)
	})
}

// eligible applies SkipPaths to the directories holding the file, never to
// the file name itself.
func (s *Scanner) eligible(path string, f os.FileInfo) bool {
	return !f.IsDir() && !lo.Contains(s.skipFiles, f.Name()) && !s.skippedPath(filepath.Dir(path))
}

// Units returns the directories exactly depth levels below the root, sorted.
// Files found at that level are logged and skipped.
func (s *Scanner) Units(depth int) ([]string, error) {
	level := []string{s.root}
	for d := 1; d <= depth; d++ {
		next := make([]string, 0)
		for _, dir := range level {
			entries, err := afero.ReadDir(s.fs, dir)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", dir, err)
			}
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				if !entry.IsDir() {
					if d == depth {
						log.Warn(fmt.Sprintf("Unexpected file at unit level, skipping: %s", path))
					}
					continue
				}
				if s.skippedPath(path) {
					log.Info(fmt.Sprintf("%s matches skip list. skipping...", path))
					continue
				}
				next = append(next, path)
			}
		}
		level = next
	}

	return level, nil
}

// Scan aggregates the eligible files under unitPath. ok is false when there
// are none. Modification times are truncated to the persisted precision so
// that a rescan of an unchanged unit compares equal to its stored record.
func (s *Scanner) Scan(unitPath string) (meta UnitMetadata, ok bool, err error) {
	walkErr := afero.Walk(s.fs, unitPath, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !s.eligible(path, f) {
			return nil
		}
		meta.FileCount++
		meta.TotalSize += f.Size()
		if modified := f.ModTime().Truncate(timestampPrecision); modified.After(meta.LastModified) {
			meta.LastModified = modified
		}
		return nil
	})
	if walkErr != nil {
		return UnitMetadata{}, false, fmt.Errorf("scanning %s: %w", unitPath, walkErr)
	}

	return meta, meta.FileCount > 0, nil
}

// EligibleFiles lists the files of a unit the upload pipeline should send.
func (s *Scanner) EligibleFiles(unitPath string) ([]EligibleFile, error) {
	files := make([]EligibleFile, 0)
	walkErr := afero.Walk(s.fs, unitPath, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if s.eligible(path, f) {
			files = append(files, EligibleFile{Path: path, Size: f.Size()})
		}
		return nil
	})

	return files, walkErr
}

// KeyFor maps a local path to its object key: the slash-separated path
// relative to the parent of the backup root.
func (s *Scanner) KeyFor(path string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(s.root), path)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside of %s", path, s.root)
	}
	return filepath.ToSlash(rel), nil
}
