package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Environment variables that supply static S3 credentials, for
// S3-compatible stores outside the AWS credential chain.
const (
	envS3AccessKey = "MXGUIDE_S3_ACCESS_KEY"
	envS3SecretKey = "MXGUIDE_S3_SECRET_KEY"
)

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func newS3Uploader(ctx context.Context, bucket, endpoint string) (*s3Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if key, secret := os.Getenv(envS3AccessKey), os.Getenv(envS3SecretKey); key != "" && secret != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Uploader{client: client, bucket: bucket}, nil
}

func (u *s3Uploader) Upload(ctx context.Context, key string, body []byte, meta ObjectMeta) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(meta.ContentType),
	}
	if meta.ContentEncoding != "" {
		in.ContentEncoding = aws.String(meta.ContentEncoding)
	}
	if _, err := u.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (u *s3Uploader) Close() error { return nil }
