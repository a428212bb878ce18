package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoot = "/nas/photos"

var testModified = time.Date(2023, 5, 17, 9, 30, 15, 123456000, time.Local)

func writeTestFile(t *testing.T, fs afero.Fs, path string, size int, modified time.Time) {
	t.Helper()
	require.Nil(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.Nil(t, afero.WriteFile(fs, path, bytes.Repeat([]byte("x"), size), 0644))
	require.Nil(t, fs.Chtimes(path, modified, modified))
}

func testBackupConfig() BackupConfig {
	return BackupConfig{
		Root:        testRoot,
		UnitDepth:   2,
		SkipFiles:   []string{".DS_Store", "Thumbs.db"},
		SkipPaths:   []string{"@eaDir"},
		Bucket:      "test-bucket",
		Concurrency: 4,
	}
}

// tripUnit is the unit used throughout the pipeline tests: three files of
// 10, 20 and 30 bytes.
func tripUnit(t *testing.T, fs afero.Fs) string {
	t.Helper()
	unit := filepath.Join(testRoot, "2020", "trip")
	writeTestFile(t, fs, filepath.Join(unit, "a.jpg"), 10, testModified.Add(-2*time.Hour))
	writeTestFile(t, fs, filepath.Join(unit, "b.jpg"), 20, testModified.Add(-time.Hour))
	writeTestFile(t, fs, filepath.Join(unit, "raw", "c.cr2"), 30, testModified)
	return unit
}

func assertSameRecord(t *testing.T, expected, actual Record) {
	t.Helper()
	assert.Equal(t, expected.Status, actual.Status)
	assert.Equal(t, expected.LocalPath, actual.LocalPath)
	assert.Equal(t, expected.LocalFileCount, actual.LocalFileCount)
	assert.Equal(t, expected.LocalTotalSize, actual.LocalTotalSize)
	assert.True(t, expected.LocalLastModified.Equal(actual.LocalLastModified),
		"local_last_modified: expected %s, got %s", expected.LocalLastModified, actual.LocalLastModified)
	assert.True(t, expected.SyncStart.Equal(actual.SyncStart),
		"sync_start: expected %s, got %s", expected.SyncStart, actual.SyncStart)
	assert.True(t, expected.SyncEnd.Equal(actual.SyncEnd),
		"sync_end: expected %s, got %s", expected.SyncEnd, actual.SyncEnd)
	assert.Equal(t, expected.RemoteID, actual.RemoteID)
	assert.Equal(t, expected.RemoteFileCount, actual.RemoteFileCount)
	assert.Equal(t, expected.RemoteTotalSize, actual.RemoteTotalSize)
}
