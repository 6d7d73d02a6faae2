package cmd

import (
	"context"
	"fmt"

	lodelibrary "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/keyspace/cli/config"
	"github.com/pithecene-io/keyspace/lode"
)

// storageFlags returns the Lode storage flags. Set flags override the
// config file's storage section.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-dataset", Usage: "Lode dataset name (default " + lode.DefaultDataset + ")"},
		&cli.StringFlag{Name: "storage-backend", Usage: "Storage backend: fs or s3"},
		&cli.StringFlag{Name: "storage-path", Usage: "Storage path (fs: directory, s3: bucket/prefix)"},
		&cli.StringFlag{Name: "storage-region", Usage: "AWS region for S3 backend (optional, uses default chain)"},
		&cli.StringFlag{Name: "storage-endpoint", Usage: "Custom S3 endpoint for S3-compatible providers"},
		&cli.BoolFlag{Name: "storage-s3-path-style", Usage: "Force path-style S3 addressing"},
	}
}

// storageFromFlags overlays set storage flags on base. An empty backend
// with a path means fs.
func storageFromFlags(c *cli.Context, base config.StorageConfig) config.StorageConfig {
	s := base
	if c.IsSet("storage-dataset") {
		s.Dataset = c.String("storage-dataset")
	}
	if c.IsSet("storage-backend") {
		s.Backend = c.String("storage-backend")
	}
	if c.IsSet("storage-path") {
		s.Path = c.String("storage-path")
	}
	if c.IsSet("storage-region") {
		s.Region = c.String("storage-region")
	}
	if c.IsSet("storage-endpoint") {
		s.Endpoint = c.String("storage-endpoint")
	}
	if c.IsSet("storage-s3-path-style") {
		s.S3PathStyle = c.Bool("storage-s3-path-style")
	}
	if s.Backend == "" && s.Path != "" {
		s.Backend = "fs"
	}
	if s.Dataset == "" {
		s.Dataset = lode.DefaultDataset
	}
	return s
}

func s3ConfigFor(s config.StorageConfig) lode.S3Config {
	bucket, prefix := lode.ParseS3Path(s.Path)
	return lode.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       s.Region,
		Endpoint:     s.Endpoint,
		UsePathStyle: s.S3PathStyle,
	}
}

// storageURI describes where records land, for notifications.
func storageURI(s config.StorageConfig) string {
	switch s.Backend {
	case "s3":
		return "s3://" + s.Path
	case "fs":
		return "file://" + s.Path
	default:
		return ""
	}
}

// buildWriteClient creates a Lode client for a run's partition.
// Returns nil when no storage path is configured.
func buildWriteClient(ctx context.Context, s config.StorageConfig, cfg lode.Config) (*lode.LodeClient, error) {
	if s.Path == "" {
		return nil, nil
	}
	cfg.Dataset = s.Dataset

	switch s.Backend {
	case "fs":
		return lode.NewLodeClient(cfg, s.Path)
	case "s3":
		return lode.NewLodeS3Client(ctx, cfg, s3ConfigFor(s))
	default:
		return nil, fmt.Errorf("unknown storage-backend: %s (must be fs or s3)", s.Backend)
	}
}

// buildReadDataset creates a Lode Dataset for reading.
func buildReadDataset(ctx context.Context, s config.StorageConfig) (lodelibrary.Dataset, error) {
	switch s.Backend {
	case "fs":
		return lode.NewReadDatasetFS(s.Dataset, s.Path)
	case "s3":
		return lode.NewReadDatasetS3(ctx, s.Dataset, s3ConfigFor(s))
	default:
		return nil, fmt.Errorf("unsupported storage-backend: %q (must be fs or s3)", s.Backend)
	}
}
