package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/listing"
	listingcache "github.com/grote/lazylist/pkg/listing/cache"
	"github.com/grote/lazylist/pkg/provider"
	snapcache "github.com/grote/lazylist/pkg/provider/cache"
	"github.com/grote/lazylist/pkg/provider/memory"
	providers3 "github.com/grote/lazylist/pkg/provider/s3"
	"github.com/mitchellh/mapstructure"
)

// CreateProvider creates a listing provider based on configuration.
//
// The Type field selects the implementation; the matching type-specific
// section is decoded from its map and passed to the provider constructor.
//
// Supported types:
//   - "memory": in-process provider, optionally seeded from config
//   - "s3": remote provider over an S3 bucket with a local snapshot store
//
// Returns the provider plus a cleanup function releasing any resources it
// holds (e.g., the snapshot database).
func CreateProvider(ctx context.Context, cfg *ProviderConfig) (provider.Provider, func() error, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryProvider(cfg.Memory)
	case "s3":
		return createS3Provider(ctx, cfg.S3)
	default:
		return nil, nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
}

// CreateClient assembles the listing client for the configured provider,
// wrapping it with the listing cache when enabled.
func CreateClient(cfg *ClientConfig, p provider.Provider) listingcache.ListingClient {
	client := listing.NewClient(p, cfg.WaitTimeout)

	if !cfg.Cache.Enabled {
		return client
	}

	return listingcache.NewCachedClient(client, listingcache.Config{
		Enabled:    true,
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
	})
}

// memorySeedEntry describes one seeded child in the memory provider config.
type memorySeedEntry struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
	Size int64  `mapstructure:"size"`
}

// createMemoryProvider creates an in-memory provider, seeded from the
// config section's "directories" map (path -> entries).
func createMemoryProvider(options map[string]any) (provider.Provider, func() error, error) {
	var memoryCfg struct {
		Directories map[string][]memorySeedEntry `mapstructure:"directories"`
	}
	if err := mapstructure.Decode(options, &memoryCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode memory provider config: %w", err)
	}

	p := memory.NewMemoryProvider()
	for path, seeds := range memoryCfg.Directories {
		rows := make([]provider.Row, 0, len(seeds))
		for _, seed := range seeds {
			kind := provider.KindFile
			if seed.Kind == "directory" {
				kind = provider.KindDirectory
			}
			rows = append(rows, provider.Row{Name: seed.Name, Kind: kind, Size: seed.Size})
		}
		p.AddDirectory(provider.Directory(path), rows)
	}

	logger.Info("Memory provider initialized: %d seeded directories", len(memoryCfg.Directories))

	return p, func() error { return nil }, nil
}

// createS3Provider creates an S3-backed provider with its snapshot store.
func createS3Provider(ctx context.Context, options map[string]any) (provider.Provider, func() error, error) {
	var storeCfg struct {
		Region           string        `mapstructure:"region"`
		Bucket           string        `mapstructure:"bucket"`
		KeyPrefix        string        `mapstructure:"key_prefix"`
		Endpoint         string        `mapstructure:"endpoint"`
		AccessKeyID      string        `mapstructure:"access_key_id"`
		SecretAccessKey  string        `mapstructure:"secret_access_key"`
		MaxRetries       int           `mapstructure:"max_retries"`
		RefreshPerSecond uint          `mapstructure:"refresh_per_second"`
		RefreshBurst     uint          `mapstructure:"refresh_burst"`
		RefreshTimeout   time.Duration `mapstructure:"refresh_timeout"`
		SnapshotPath     string        `mapstructure:"snapshot_path"`
		SnapshotTTL      time.Duration `mapstructure:"snapshot_ttl"`
		SnapshotInMemory bool          `mapstructure:"snapshot_in_memory"`
	}
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode S3 provider config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, nil, fmt.Errorf("S3 provider: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, nil, fmt.Errorf("S3 provider: region is required")
	}

	client, err := buildS3Client(ctx, storeCfg.Region, storeCfg.Endpoint,
		storeCfg.AccessKeyID, storeCfg.SecretAccessKey, storeCfg.MaxRetries)
	if err != nil {
		return nil, nil, err
	}

	snapshots, err := snapcache.NewSnapshotStore(ctx, snapcache.SnapshotStoreConfig{
		Path:     storeCfg.SnapshotPath,
		InMemory: storeCfg.SnapshotInMemory,
		TTL:      storeCfg.SnapshotTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	p, err := providers3.NewS3Provider(providers3.S3ProviderConfig{
		Client:           client,
		Bucket:           storeCfg.Bucket,
		KeyPrefix:        storeCfg.KeyPrefix,
		Snapshots:        snapshots,
		RefreshPerSecond: storeCfg.RefreshPerSecond,
		RefreshBurst:     storeCfg.RefreshBurst,
		RefreshTimeout:   storeCfg.RefreshTimeout,
	})
	if err != nil {
		snapshots.Close()
		return nil, nil, fmt.Errorf("failed to create S3 provider: %w", err)
	}

	logger.Info("S3 provider initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return p, snapshots.Close, nil
}

// buildS3Client loads AWS configuration and creates the S3 client.
func buildS3Client(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string, maxRetries int) (*awss3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(region))

	// Custom endpoint for S3-compatible storage (MinIO, Localstack, etc.)
	if endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, default credential chain otherwise
	if accessKeyID != "" && secretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry transient errors (502, 503, timeouts, etc.)
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility
		if endpoint != "" {
			o.UsePathStyle = true
		}
	}), nil
}
