package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/ingest"
	"github.com/andresuchdata/vendacerta/backend-go/internal/storage"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
		&cli.StringFlag{
			Name:    "download-dir",
			Usage:   "Local directory for downloaded objects",
			Value:   "./data/tmp/sales",
			EnvVars: []string{"DOWNLOAD_DIR"},
		},
	}
}

type objectDownloader struct {
	client  storage.ObjectStorage
	destDir string
}

func newObjectDownloader(c *cli.Context) (*objectDownloader, error) {
	client, err := storage.NewMinioClient(config.StorageConfig{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
	if err != nil {
		return nil, err
	}

	destDir := c.String("download-dir")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}
	return &objectDownloader{client: client, destDir: destDir}, nil
}

// download fetches either the single override object or every table under
// prefix, returning local paths in key order.
func (d *objectDownloader) download(ctx context.Context, prefix, override string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		objects, err := d.client.ListObjects(ctx, strings.TrimSpace(prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
		}
		for _, obj := range objects {
			if ingest.IsSupported(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no CSV or XLSX files found for prefix %s", prefix)
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(d.destDir, objectRelativePath(prefix, key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		paths = append(paths, localPath)
	}

	sort.Strings(paths)
	return paths, nil
}

func resolveObjectKey(prefix, override string) string {
	override = strings.TrimPrefix(strings.TrimSpace(override), "/")
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if prefix == "" || strings.HasPrefix(override, prefix) {
		return override
	}
	return prefix + "/" + override
}

func objectRelativePath(prefix, key string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	rel := strings.TrimPrefix(key, prefix+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}
