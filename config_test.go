package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: aws
  region: us-east-1
backup:
  root: /nas/photos/
  bucket: archive-bucket
  skipfiles:
    - .DS_Store
  skippaths:
    - "@eaDir"
`)

	appConfig, err := LoadConfig(path)

	require.Nil(t, err)
	assert.Equal(t, "/nas/photos", appConfig.Backup.Root)
	assert.Equal(t, 2, appConfig.Backup.UnitDepth)
	assert.Equal(t, 10, appConfig.Backup.Concurrency)
	assert.True(t, appConfig.Backup.Archival())
	assert.False(t, appConfig.Backup.DryRun)
	assert.Equal(t, []string{".DS_Store"}, appConfig.Backup.SkipFiles)
	assert.Equal(t, []string{"@eaDir"}, appConfig.Backup.SkipPaths)
	assert.Equal(t, "csv", appConfig.Store.Driver)
	assert.Equal(t, "status.csv", appConfig.Store.Path)
	assert.Equal(t, "0 3 * * *", appConfig.Schedule.At)
	assert.Equal(t, "info", appConfig.Log.Level)
}

func TestLoadConfigColdStorageDisabled(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: minio
  endpoint: localhost:9000
backup:
  root: /nas/photos
  bucket: archive-bucket
  coldstorage: false
  unitdepth: 3
`)

	appConfig, err := LoadConfig(path)

	require.Nil(t, err)
	assert.False(t, appConfig.Backup.Archival())
	assert.Equal(t, 3, appConfig.Backup.UnitDepth)
}

func TestLoadConfigRequiresBucket(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: aws
backup:
  root: /nas/photos
`)

	_, err := LoadConfig(path)

	assert.NotNil(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NASARCHIVE_BACKUP_BUCKET", "env-bucket")
	path := writeConfig(t, `
provider:
  name: aws
backup:
  root: /nas/photos
  bucket: file-bucket
`)

	appConfig, err := LoadConfig(path)

	require.Nil(t, err)
	assert.Equal(t, "env-bucket", appConfig.Backup.Bucket)
}

func TestNormalizeRejectsZeroDepth(t *testing.T) {
	appConfig := testAppConfig()
	appConfig.Backup.UnitDepth = 0

	assert.NotNil(t, appConfig.normalize())
}

func TestNormalizeKeepsFilesystemRoot(t *testing.T) {
	appConfig := testAppConfig()
	appConfig.Backup.Root = "/"
	appConfig.Backup.Concurrency = 0

	require.Nil(t, appConfig.normalize())
	assert.Equal(t, "/", appConfig.Backup.Root)
	assert.Equal(t, 1, appConfig.Backup.Concurrency)
}

func TestFactoriesRejectUnknownNames(t *testing.T) {
	appConfig := testAppConfig()
	appConfig.Provider.Name = "floppy"
	appConfig.Store.Driver = "punchcards"

	_, clientErr := appConfig.ClientFromConfig(context.Background())
	_, persisterErr := appConfig.PersisterFromConfig(afero.NewMemMapFs())

	assert.NotNil(t, clientErr)
	assert.NotNil(t, persisterErr)
}

func TestMinioRequiresEndpoint(t *testing.T) {
	appConfig := testAppConfig()
	appConfig.Provider.Name = "minio"

	_, err := appConfig.ClientFromConfig(context.Background())

	assert.NotNil(t, err)
}

func TestConfigStringArray(t *testing.T) {
	lines := testAppConfig().ConfigStringArray()

	assert.Contains(t, lines, "  - Bucket: test-bucket")
	assert.Contains(t, lines, "  - Skip Paths: @eaDir")
	assert.Contains(t, lines, "  - Cold Storage: true")
}
