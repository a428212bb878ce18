package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// recordBackupLayout names store snapshots so they sort chronologically.
const recordBackupLayout = "20060102T150405"

// backupRecordStore uploads a tar.gz snapshot of the record store files to
// prefix in the bucket and returns the key it used. Snapshots are always
// written in the standard storage class so they stay immediately readable.
func backupRecordStore(
	ctx context.Context,
	fs afero.Fs,
	client BucketClient,
	clock clockwork.Clock,
	bucket, prefix string,
	storeFiles []string,
) (string, error) {
	filesToArchive := make([]string, 0, len(storeFiles))
	for _, file := range storeFiles {
		exists, err := afero.Exists(fs, file)
		if err != nil {
			return "", err
		}
		if exists {
			filesToArchive = append(filesToArchive, file)
		}
	}
	if len(filesToArchive) == 0 {
		return "", fmt.Errorf("no record store files to back up")
	}

	tarFile, err := afero.TempFile(fs, "", "record-store-*.tar.gz")
	if err != nil {
		return "", err
	}
	defer fs.Remove(tarFile.Name())
	defer tarFile.Close()

	log.Debug(fmt.Sprintf("Creating record store tarball: %s", tarFile.Name()))
	if err := createArchive(fs, filesToArchive, tarFile); err != nil {
		return "", fmt.Errorf("creating record store archive: %w", err)
	}

	info, err := tarFile.Stat()
	if err != nil {
		return "", err
	}
	if _, err := tarFile.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	base := filepath.Base(filesToArchive[0])
	fileKey := path.Join(prefix, fmt.Sprintf("%s_%s.tar.gz", base, clock.Now().Format(recordBackupLayout)))
	if putErr := client.UploadFile(ctx, bucket, fileKey, tarFile, info.Size(), UploadOptions{}); putErr != nil {
		return "", fmt.Errorf("uploading record store backup: %w", putErr)
	}
	log.Info("Record store backup uploaded as ", fileKey)

	return fileKey, nil
}

func createArchive(fs afero.Fs, files []string, buf io.Writer) error {
	gw := gzip.NewWriter(buf)
	tw := tar.NewWriter(gw)

	for _, file := range files {
		if err := addToArchive(fs, tw, file); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func addToArchive(fs afero.Fs, tw *tar.Writer, filename string) error {
	file, err := fs.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, info.Name())
	if err != nil {
		return err
	}

	header.Name = filepath.Base(filename)

	err = tw.WriteHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(tw, file)
	if err != nil {
		return err
	}

	return nil
}
