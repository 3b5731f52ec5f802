package storage

import (
	"context"
	"fmt"

	"github.com/qiniu/go-sdk/v7/auth"
	qstorage "github.com/qiniu/go-sdk/v7/storage"

	"github.com/18F/cdn-cert-renewer/config"
)

// uploadTokenTTL is the validity window of the scoped upload credential,
// in seconds.
const uploadTokenTTL = 3600

type QiniuStore struct {
	bucket string
	mac    *auth.Credentials

	putFile      func(ctx context.Context, ret interface{}, upToken, key, localFile string, extra *qstorage.PutExtra) error
	deleteObject func(bucket, key string) error
}

func NewQiniuStore(cfg config.StorageConfig) *QiniuStore {
	mac := auth.New(cfg.AccessKey, cfg.SecretKey)
	qcfg := qstorage.Config{UseHTTPS: cfg.UseHTTPS}
	uploader := qstorage.NewFormUploader(&qcfg)
	manager := qstorage.NewBucketManager(mac, &qcfg)

	return &QiniuStore{
		bucket:       cfg.BucketName,
		mac:          mac,
		putFile:      uploader.PutFile,
		deleteObject: manager.Delete,
	}
}

// uploadToken mints a credential that authorizes upload of exactly one key
// in the configured bucket.
func (s *QiniuStore) uploadToken(key string) string {
	policy := qstorage.PutPolicy{
		Scope:   fmt.Sprintf("%s:%s", s.bucket, key),
		Expires: uploadTokenTTL,
	}
	return policy.UploadToken(s.mac)
}

func (s *QiniuStore) Upload(key, localPath string) error {
	want, err := EtagFile(localPath)
	if err != nil {
		return fmt.Errorf("computing etag of %s: %w", localPath, err)
	}

	var ret qstorage.PutRet
	err = s.putFile(context.Background(), &ret, s.uploadToken(key), key, localPath, &qstorage.PutExtra{})
	if err != nil {
		return err
	}

	if ret.Key != key {
		return fmt.Errorf("uploaded key mismatch: expected %s, got %s", key, ret.Key)
	}
	if ret.Hash != want {
		return fmt.Errorf("content digest mismatch for %s: expected %s, got %s", key, want, ret.Hash)
	}
	return nil
}

func (s *QiniuStore) Delete(key string) error {
	return s.deleteObject(s.bucket, key)
}
