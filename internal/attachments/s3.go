package attachments

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eventbudget/internal/idgen"
)

// objectAPI is the subset of the S3 client used by S3Store.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps attachments in an S3-compatible bucket under
// attachments/{owner}/.
type S3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
	newID   idgen.Generator
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates an S3 store. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func NewS3Store(ctx context.Context, bucket, region, endpoint string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return newS3Store(s3.NewFromConfig(cfg, s3opts...), bucket, region, endpoint), nil
}

func newS3Store(client objectAPI, bucket, region, endpoint string) *S3Store {
	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
	if endpoint != "" {
		base = strings.TrimRight(endpoint, "/") + "/" + bucket + "/"
	}
	return &S3Store{client: client, bucket: bucket, baseURL: base, newID: idgen.New}
}

func (s *S3Store) Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (string, error) {
	id, err := s.newID(idgen.FilePrefix)
	if err != nil {
		return "", err
	}
	key := "attachments/" + ownerID + "/" + id + "-" + cleanName(filename)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.baseURL + key, nil
}

func (s *S3Store) DeleteByURL(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrUnknownURL, url)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}
