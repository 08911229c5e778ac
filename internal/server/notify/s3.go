package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config addresses an S3-compatible bucket (MinIO in development).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Outbox stores each rendered message in a bucket instead of sending it
// and returns a presigned GET link to the stored copy as deliveryRef. It
// plays the role of a mail preview service in development.
type S3Outbox struct {
	client     objectPutter
	presign    objectPresigner
	from       string
	appURL     string
	bucket     string
	linkExpiry time.Duration
	now        func() time.Time
}

func NewS3Outbox(ctx context.Context, cfg S3Config, from, appURL string) (*S3Outbox, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Outbox{
		client:     client,
		presign:    s3.NewPresignClient(client),
		from:       from,
		appURL:     appURL,
		bucket:     cfg.Bucket,
		linkExpiry: time.Hour,
		now:        time.Now,
	}, nil
}

func (o *S3Outbox) objectKey(accountID string) string {
	d := o.now().UTC()
	return fmt.Sprintf("outbox/%d/%02d/%02d/%s/%s.html", d.Year(), d.Month(), d.Day(), accountID, uuid.NewString())
}

func (o *S3Outbox) SendVerification(ctx context.Context, email, rawToken, accountID string) (string, error) {
	msg, err := RenderVerification(o.from, o.appURL, email, rawToken, accountID)
	if err != nil {
		return "", err
	}

	key := o.objectKey(accountID)
	body := fmt.Sprintf("<!-- From: %s -->\n<!-- To: %s -->\n<!-- Subject: %s -->\n%s\n",
		msg.From, msg.To, msg.Subject, msg.HTML)

	_, err = o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("store message: %w", err)
	}

	req, err := o.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(o.linkExpiry))
	if err != nil {
		return "", fmt.Errorf("presign message link: %w", err)
	}

	return req.URL, nil
}
