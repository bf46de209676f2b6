// Package s3 implements a listing provider over Amazon S3 or S3-compatible
// storage.
//
// Listing a bucket prefix is a remote round-trip, so the provider never
// makes the caller's query wait for it. A query is answered immediately
// from the local snapshot store: a fresh snapshot resolves the query on the
// spot, a stale or missing one is served as a loading placeholder while a
// background refresh runs. When the refresh lands, the provider stores the
// new snapshot and fires the change notification on every result handed
// out for that directory, which is what the readiness waiter in
// pkg/listing keys on.
package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/internal/ratelimiter"
	"github.com/grote/lazylist/pkg/provider"
	"github.com/grote/lazylist/pkg/provider/cache"
)

// DefaultRefreshTimeout bounds one background refresh against S3.
const DefaultRefreshTimeout = 10 * time.Second

// S3ProviderConfig contains configuration for the S3 provider.
type S3ProviderConfig struct {
	// Client is the configured S3 client
	Client *awss3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix prepended to every directory path
	// when building object keys
	KeyPrefix string

	// Snapshots is the local snapshot store answering queries immediately
	Snapshots *cache.SnapshotStore

	// RefreshPerSecond throttles background refreshes (0 = unlimited)
	RefreshPerSecond uint

	// RefreshBurst is the refresh burst capacity (0 = RefreshPerSecond)
	RefreshBurst uint

	// RefreshTimeout bounds one refresh round-trip. Zero selects
	// DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// S3Provider implements provider.Provider over an S3 bucket.
//
// Object keys are interpreted as slash-separated paths: listing a
// directory is a ListObjectsV2 call with the directory as key prefix and
// "/" as delimiter, so common prefixes become subdirectories and objects
// become files.
//
// Thread Safety:
// Safe for concurrent use. Concurrent queries for the same directory share
// a single in-flight refresh.
type S3Provider struct {
	client         *awss3.Client
	bucket         string
	keyPrefix      string
	snapshots      *cache.SnapshotStore
	limiter        *ratelimiter.RateLimiter
	refreshTimeout time.Duration

	mu sync.Mutex

	// inflight tracks the results subscribed to a running refresh, one
	// slice per directory being refreshed
	inflight map[provider.Directory][]*provider.StaticResult

	// failed records the last refresh error per directory so the re-query
	// after a notification can surface it as a query failure
	failed map[provider.Directory]error
}

// NewS3Provider creates an S3-backed provider.
func NewS3Provider(cfg S3ProviderConfig) (*S3Provider, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 provider: S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 provider: bucket name is required")
	}
	if cfg.Snapshots == nil {
		return nil, fmt.Errorf("s3 provider: snapshot store is required")
	}

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}

	logger.Info("S3 provider ready: bucket=%s prefix=%q refresh_rate=%d/s",
		cfg.Bucket, cfg.KeyPrefix, cfg.RefreshPerSecond)

	return &S3Provider{
		client:         cfg.Client,
		bucket:         cfg.Bucket,
		keyPrefix:      cfg.KeyPrefix,
		snapshots:      cfg.Snapshots,
		limiter:        ratelimiter.New(cfg.RefreshPerSecond, cfg.RefreshBurst),
		refreshTimeout: refreshTimeout,
		inflight:       make(map[provider.Directory][]*provider.StaticResult),
		failed:         make(map[provider.Directory]error),
	}, nil
}

// Children answers a directory query from the snapshot store, starting a
// background refresh when the snapshot is stale or missing.
func (p *S3Provider) Children(ctx context.Context, dir provider.Directory) (provider.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A refresh failure recorded for this directory is surfaced on the
	// next query, then cleared so a later attempt can start over.
	p.mu.Lock()
	if err, ok := p.failed[dir]; ok {
		delete(p.failed, dir)
		p.mu.Unlock()
		return nil, err
	}
	p.mu.Unlock()

	rows, ok, fresh, err := p.snapshots.Get(dir)
	if err != nil {
		return nil, err
	}

	if ok && fresh {
		return provider.NewStaticResult(rows, false), nil
	}

	// Stale or missing snapshot: hand out a loading placeholder and make
	// sure a refresh is running.
	res := provider.NewStaticResult(rows, true)
	p.subscribe(dir, res)
	return res, nil
}

// subscribe attaches res to the directory's in-flight refresh, starting
// one when none is running.
func (p *S3Provider) subscribe(dir provider.Directory, res *provider.StaticResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, running := p.inflight[dir]
	p.inflight[dir] = append(p.inflight[dir], res)

	res.SetOnClose(func() {
		p.unsubscribe(dir, res)
	})

	if !running {
		go p.refresh(dir)
	}
}

// unsubscribe detaches a closed result from the in-flight refresh.
func (p *S3Provider) unsubscribe(dir provider.Directory, res *provider.StaticResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.inflight[dir]
	for i, r := range subs {
		if r == res {
			p.inflight[dir] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// refresh lists the directory from S3, stores the snapshot, and notifies
// every subscribed result.
//
// The refresh deliberately runs on its own context: the querying caller
// may be cancelled or timed out, but a completed refresh still warms the
// snapshot store for the next query.
func (p *S3Provider) refresh(dir provider.Directory) {
	ctx, cancel := context.WithTimeout(context.Background(), p.refreshTimeout)
	defer cancel()

	err := p.limiter.Wait(ctx)
	if err == nil {
		var rows []provider.Row
		rows, err = p.listObjects(ctx, dir)
		if err == nil {
			err = p.snapshots.Put(dir, rows)
		}
	}

	p.mu.Lock()
	subs := p.inflight[dir]
	delete(p.inflight, dir)
	if err != nil {
		logger.Warn("Refresh of %s failed: %v", dir.Path(), err)
		p.failed[dir] = err
	} else {
		delete(p.failed, dir)
	}
	p.mu.Unlock()

	// Notify in any case: on failure the re-query surfaces the recorded
	// error instead of a fresh snapshot.
	for _, res := range subs {
		res.Notify()
	}
}

// listObjects performs one paginated ListObjectsV2 walk of the directory.
func (p *S3Provider) listObjects(ctx context.Context, dir provider.Directory) ([]provider.Row, error) {
	prefix := p.objectPrefix(dir)

	var rows []provider.Row
	paginator := awss3.NewListObjectsV2Paginator(p.client, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		// Common prefixes are the immediate subdirectories.
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			rows = append(rows, provider.Row{
				Name: name,
				Kind: provider.KindDirectory,
			})
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Skip the directory marker object itself.
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			row := provider.Row{
				Name: name,
				Kind: provider.KindFile,
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				row.ModTime = *obj.LastModified
			}
			rows = append(rows, row)
		}
	}

	logger.Debug("Listed %s from s3://%s/%s: %d rows", dir.Path(), p.bucket, prefix, len(rows))
	return rows, nil
}

// objectPrefix maps a directory path to its S3 key prefix.
func (p *S3Provider) objectPrefix(dir provider.Directory) string {
	path := strings.Trim(dir.Path(), "/")

	prefix := p.keyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if path != "" {
		prefix += path + "/"
	}
	return prefix
}
