package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/fincrypt/interfaces"
)

// S3KeyStore serves public keys from Amazon S3 or a compatible service.
// Objects live under <prefix>/public_keys/<name>. Private keys are never
// read from object storage.
type S3KeyStore struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3KeyStore creates a new S3 key store. Without accessKey and secretKey
// requests are sent unsigned, which works for public buckets.
func NewS3KeyStore(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3KeyStore, error) {
	prefix = strings.Trim(prefix, "/")

	// Format the URI for tracking
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
	}
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.AnonymousCredentials,
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Debug("No S3 credentials provided, bucket assumed to be public")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3KeyStore{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      prefix,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves a public key object. Returns ErrKeyNotFound if the object
// doesn't exist and ErrRoleUnsupported for the private role.
func (b *S3KeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	if role != interfaces.PublicRole {
		return nil, fmt.Errorf("%w: %s keys are not served from S3", interfaces.ErrRoleUnsupported, role)
	}
	if err := interfaces.ValidateKeyName(name); err != nil {
		return nil, err
	}

	start := time.Now()
	key := b.objectKey(name)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			b.log.Debug("Key not found in S3",
				slog.String("bucket", b.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, fmt.Errorf("%w: public key %q", interfaces.ErrKeyNotFound, name)
		}

		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Fetched key from S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// List returns the names of the objects directly under the public key prefix.
func (b *S3KeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	if role != interfaces.PublicRole {
		return nil, fmt.Errorf("%w: %s keys are not served from S3", interfaces.ErrRoleUnsupported, role)
	}

	dir := b.objectKey("") + "/"
	names := []string{}
	err := b.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucketName),
		Prefix: aws.String(dir),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), dir)
			if interfaces.ValidateKeyName(name) == nil {
				names = append(names, name)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in S3: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Available checks if the S3 key store is accessible by attempting to head the bucket.
func (b *S3KeyStore) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 key store unavailable",
			slog.String("bucket", b.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this key store.
func (b *S3KeyStore) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this key store.
func (b *S3KeyStore) LocationURI() string {
	return b.locationURI
}

func (b *S3KeyStore) objectKey(name string) string {
	return strings.TrimSuffix(path.Join(b.prefix, DefaultPublicKeyDir, name), "/")
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}
