package blob

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"SLComply/internal/domain"
	"SLComply/internal/ports"
)

// DefaultExpiry bounds the lifetime of a presigned link when none is configured.
const DefaultExpiry = time.Hour

// Options configures the document store.
type Options struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Region       string
	Bucket       string
	GovPrefix    string
	NonGovPrefix string
	Expiry       time.Duration
}

// MinioLinker hands out presigned GET URLs for revision PDFs.
type MinioLinker struct {
	client   *minio.Client
	bucket   string
	prefixes map[domain.Category]string
	expiry   time.Duration
}

var _ ports.DocumentLinker = (*MinioLinker)(nil)

// NewMinioLinker builds the client. Presigning is local when a region is set.
func NewMinioLinker(opts Options) (*MinioLinker, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("blob bucket is required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &MinioLinker{
		client: client,
		bucket: opts.Bucket,
		prefixes: map[domain.Category]string{
			domain.CategoryGov:    opts.GovPrefix,
			domain.CategoryNonGov: opts.NonGovPrefix,
		},
		expiry: expiry,
	}, nil
}

// DocumentURL presigns the PDF stored as <prefix>/<filename>.
func (l *MinioLinker) DocumentURL(ctx context.Context, category domain.Category, filename string) (string, error) {
	prefix, ok := l.prefixes[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDocType, category)
	}

	params := url.Values{}
	params.Set("response-content-type", "application/pdf")

	u, err := l.client.PresignedGetObject(ctx, l.bucket, path.Join(prefix, filename), l.expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", filename, err)
	}
	return u.String(), nil
}
