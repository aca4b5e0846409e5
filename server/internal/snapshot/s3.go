package snapshot

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/botdeck/botdeck/server/internal/config"
)

// S3Source reads <prefix>{bots,workers,logs}.json objects from a bucket.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source builds an S3 client from cfg. Static credentials are used
// when cfg names them, otherwise the default AWS credential chain applies.
// optFns are applied to the client options after cfg.
func NewS3Source(cfg config.S3SourceConfig, optFns ...func(*s3.Options)) (*S3Source, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if ak, sk, ok := cfg.StaticCredentials(); ok {
		loadOpts = append(loadOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ak, sk, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: load aws config")
	}

	endpoint := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){endpoint}, optFns...)...)

	return &S3Source{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Name implements Source.
func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.prefix }

// Fetch implements Source.
func (s *S3Source) Fetch(ctx context.Context) (*Raw, error) {
	docs := make(map[string][]byte, 3)
	for _, name := range []string{Bots, Workers, Logs} {
		key := s.prefix + name + ".json"
		data, err := s.get(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "get s3://%s/%s", s.bucket, key)
		}
		docs[name] = data
	}
	return decodeAll("json", docs)
}

func (s *S3Source) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
