package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kachery/gateway/internal/common"
)

// Seams for testing without an S3 backend.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in)
	}
)

// bucketCredentials is the JSON shape of a zone's credentials blob.
type bucketCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
}

// S3Store implements Store against any S3-compatible provider using the
// zone's static credentials and optional custom endpoint.
type S3Store struct{}

func NewS3Store() *S3Store {
	return &S3Store{}
}

// parseBucketRef splits the ref into a bucket name and client settings.
func parseBucketRef(ref BucketRef) (string, bucketCredentials, error) {
	const scheme = "s3://"
	if !strings.HasPrefix(ref.URI, scheme) {
		return "", bucketCredentials{}, fmt.Errorf("%w: unsupported bucket uri %q", common.ErrConfiguration, ref.URI)
	}
	bucket := strings.TrimPrefix(ref.URI, scheme)
	bucket = strings.TrimSuffix(bucket, "/")
	if bucket == "" || strings.Contains(bucket, "/") {
		return "", bucketCredentials{}, fmt.Errorf("%w: unsupported bucket uri %q", common.ErrConfiguration, ref.URI)
	}

	var creds bucketCredentials
	if err := json.Unmarshal([]byte(ref.Credentials), &creds); err != nil {
		return "", bucketCredentials{}, fmt.Errorf("%w: malformed bucket credentials: %v", common.ErrConfiguration, err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return "", bucketCredentials{}, fmt.Errorf("%w: bucket credentials missing access key", common.ErrConfiguration)
	}
	if creds.Region == "" {
		creds.Region = "us-east-1"
	}
	return bucket, creds, nil
}

func (s *S3Store) client(ctx context.Context, ref BucketRef) (*s3.Client, string, error) {
	bucket, creds, err := parseBucketRef(ref)
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(creds.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, "", err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
		}
		o.UsePathStyle = creds.Endpoint != ""
	})
	return client, bucket, nil
}

func (s *S3Store) ObjectExists(ctx context.Context, ref BucketRef, key string) (bool, int64, error) {
	client, bucket, err := s.client(ctx, ref)
	if err != nil {
		return false, 0, err
	}

	out, err := headObject(client, ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, aws.ToInt64(out.ContentLength), nil
}

func (s *S3Store) SignedUploadURL(ctx context.Context, ref BucketRef, key string) (string, error) {
	client, bucket, err := s.client(ctx, ref)
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) SignedDownloadURL(ctx context.Context, ref BucketRef, key string, ttl time.Duration) (string, error) {
	client, bucket, err := s.client(ctx, ref)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// uploadURLValidity bounds how long a client has to start its PUT.
const uploadURLValidity = 15 * time.Minute
