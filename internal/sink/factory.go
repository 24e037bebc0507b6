package sink

import (
	"context"
	"fmt"

	"foodwaste/internal/config"
	"foodwaste/internal/food"
)

// NewSinkFromConfig creates a Sink implementation based on the sink config type.
func NewSinkFromConfig(ctx context.Context, cfg config.SinkConfig) (food.Sink, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySink(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem sink requires dir to be set")
		}
		return NewFileSystemSink(cfg.Dir)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 sink requires s3_bucket to be set")
		}
		return NewS3Sink(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
