package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	domrepo "MandiPulse/internal/domain/repository"
)

// S3Config locates artifacts in a bucket. Endpoint targets S3-compatible
// stores such as MinIO and switches to path-style addressing.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// S3ModelStore keeps artifacts as objects under bucket/prefix.
type S3ModelStore struct {
	bucket     string
	prefix     string
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

var _ domrepo.ModelStore = (*S3ModelStore)(nil)

// NewS3ModelStore resolves credentials from the default AWS chain.
func NewS3ModelStore(ctx context.Context, cfg S3Config) (*S3ModelStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ModelStoreFromClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewS3ModelStoreFromClient(client *s3.Client, bucket, prefix string) *S3ModelStore {
	return &S3ModelStore{
		bucket:     bucket,
		prefix:     prefix,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}
}

func (s *S3ModelStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Open downloads the whole object; artifacts are small enough to buffer.
func (s *S3ModelStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkArtifactName(name); err != nil {
		return nil, err
	}
	key := s.key(name)
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: s3://%s/%s", domrepo.ErrModelNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("s3 download %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (s *S3ModelStore) Save(ctx context.Context, name string, r io.Reader) error {
	if err := checkArtifactName(name); err != nil {
		return err
	}
	key := s.key(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("application/x-msgpack"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}
