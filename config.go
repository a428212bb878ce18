package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/configor"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type AppConfig struct {
	Provider ProviderConfig
	Backup   BackupConfig
	Store    StoreConfig
	Notify   NotifyConfig
	Schedule ScheduleConfig
	Log      LogConfig
}

type ProviderConfig struct {
	Name            string `required:"true"`
	Region          string
	Profile         string
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Insecure        bool
	CredentialsFile string
}

type BackupConfig struct {
	Root        string `required:"true"`
	UnitDepth   int    `default:"2"`
	SkipFiles   []string
	SkipPaths   []string
	Bucket      string `required:"true"`
	Concurrency int    `default:"10"`
	DryRun      bool
	// ColdStorage is on unless explicitly disabled.
	ColdStorage  *bool
	StorageClass string
}

type StoreConfig struct {
	Driver       string `default:"csv"`
	Path         string `default:"status.csv"`
	BackupPrefix string
}

type NotifyConfig struct {
	Region  string
	Profile string
	ID      string
}

type ScheduleConfig struct {
	At string `default:"0 3 * * *"`
}

type LogConfig struct {
	Level string `default:"info"`
	File  string
}

// LoadConfig reads the configuration file, applying NASARCHIVE_* env overrides.
func LoadConfig(path string) (AppConfig, error) {
	var appConfig AppConfig
	loader := configor.New(&configor.Config{ENVPrefix: "NASARCHIVE"})
	if err := loader.Load(&appConfig, path); err != nil {
		return appConfig, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := appConfig.normalize(); err != nil {
		return appConfig, err
	}

	return appConfig, nil
}

func (c *AppConfig) normalize() error {
	var err error
	if c.Backup.Root, err = homedir.Expand(c.Backup.Root); err != nil {
		return fmt.Errorf("expanding backup root: %w", err)
	}
	if c.Store.Path, err = homedir.Expand(c.Store.Path); err != nil {
		return fmt.Errorf("expanding store path: %w", err)
	}
	if c.Log.File, err = homedir.Expand(c.Log.File); err != nil {
		return fmt.Errorf("expanding log file: %w", err)
	}
	if c.Provider.CredentialsFile, err = homedir.Expand(c.Provider.CredentialsFile); err != nil {
		return fmt.Errorf("expanding credentials file: %w", err)
	}
	c.Backup.Root = filepath.Clean(c.Backup.Root)

	if c.Backup.UnitDepth < 1 {
		return fmt.Errorf("unit depth must be at least 1, got %d", c.Backup.UnitDepth)
	}
	if c.Backup.Concurrency < 1 {
		c.Backup.Concurrency = 1
	}
	return nil
}

// Archival reports whether uploads should carry the cold storage class.
func (b BackupConfig) Archival() bool {
	return b.ColdStorage == nil || *b.ColdStorage
}

func (c AppConfig) ClientFromConfig(ctx context.Context) (BucketClient, error) {
	var bucketClient BucketClient
	var err error

	switch c.Provider.Name {
	case "aws":
		bucketClient, err = NewS3BucketClient(ctx, c.Provider, c.Backup.StorageClass)
	case "gcs":
		bucketClient, err = NewGCSBucketClient(ctx, c.Provider, c.Backup.StorageClass)
	case "minio":
		bucketClient, err = NewMinioBucketClient(c.Provider, c.Backup.StorageClass)
	default:
		return bucketClient, fmt.Errorf("Unknown cloud provider: %s", c.Provider.Name)
	}

	return bucketClient, err
}

func (c AppConfig) PersisterFromConfig(fs afero.Fs) (Persister, error) {
	switch c.Store.Driver {
	case "csv", "":
		return NewCSVPersister(fs, c.Store.Path), nil
	case "sqlite":
		return NewSQLitePersister(c.Store.Path)
	default:
		return nil, fmt.Errorf("Unknown record store driver: %s", c.Store.Driver)
	}
}

func (c AppConfig) ConfigStringArray() []string {
	configStrArr := make([]string, 0)
	configStrArr = append(configStrArr, fmt.Sprintf("  - Provider: %s", c.Provider.Name))
	if c.Provider.Region != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Region: %s", c.Provider.Region))
	}
	if c.Provider.Profile != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Profile: %s", c.Provider.Profile))
	}
	if c.Provider.Endpoint != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Endpoint: %s", c.Provider.Endpoint))
	}
	configStrArr = append(configStrArr, fmt.Sprintf("  - Bucket: %s", c.Backup.Bucket))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Backup Root: %s (unit depth %d)", c.Backup.Root, c.Backup.UnitDepth))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Concurrent Uploads: %d", c.Backup.Concurrency))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Cold Storage: %t", c.Backup.Archival()))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Dry Run: %t", c.Backup.DryRun))
	configStrArr = append(configStrArr, fmt.Sprintf("  - Record Store: %s (%s)", c.Store.Path, c.Store.Driver))

	if c.Notify.ID != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - SNSTopic: %s", c.Notify.ID))
	}
	if len(c.Backup.SkipFiles) > 0 {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Skip Files: %s", strings.Join(c.Backup.SkipFiles, ", ")))
	}
	if len(c.Backup.SkipPaths) > 0 {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Skip Paths: %s", strings.Join(c.Backup.SkipPaths, ", ")))
	}

	return configStrArr
}

// setupLogging mirrors log output to Log.File when one is configured.
func setupLogging(lc LogConfig) (*os.File, error) {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if lc.File == "" {
		return nil, nil
	}
	logFile, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))

	return logFile, nil
}
