package storage

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/18F/cdn-cert-renewer/config"
)

type S3Store struct {
	Bucket  string
	Service s3iface.S3API
}

func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	sess, err := session.NewSession(aws.NewConfig().
		WithRegion(region).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")))
	if err != nil {
		return nil, err
	}

	return &S3Store{
		Bucket:  cfg.BucketName,
		Service: s3.New(sess),
	}, nil
}

func (s *S3Store) Upload(key, localPath string) error {
	body, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	sum := md5.Sum(body)
	want := hex.EncodeToString(sum[:])

	out, err := s.Service.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return err
	}

	// Single-part uploads return the MD5 of the body as the ETag.
	if out.ETag != nil {
		got := strings.Trim(*out.ETag, `"`)
		if got != want {
			return fmt.Errorf("content digest mismatch for %s: expected %s, got %s", key, want, got)
		}
	}
	return nil
}

func (s *S3Store) Delete(key string) error {
	_, err := s.Service.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}
