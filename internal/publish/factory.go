package publish

import (
	"context"
	"fmt"

	"goupi/internal/config"
	"goupi/internal/goupi"
)

// NewPublisherFromConfig creates a Publisher implementation based on the publisher config type.
func NewPublisherFromConfig(ctx context.Context, cfg config.PublisherConfig) (goupi.Publisher, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryPublisher(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem publisher requires fs_root to be set")
		}
		return NewFileSystemPublisher(cfg.Name, cfg.FSRoot)
	case "s3":
		return NewS3Publisher(ctx, cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Type)
	}
}
