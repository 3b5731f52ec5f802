package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qstorage "github.com/qiniu/go-sdk/v7/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/18F/cdn-cert-renewer/config"
)

func qiniuTestConfig() config.StorageConfig {
	return config.StorageConfig{
		Provider:   config.ProviderQiniu,
		AccessKey:  "test-ak",
		SecretKey:  "test-sk",
		BucketName: "my-bucket",
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "validation")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestQiniuUploadToken(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())

	token := store.uploadToken(".well-known/acme-challenge/abc123")

	// Upload tokens have the form <ak>:<sign>:<base64 put policy>.
	parts := strings.SplitN(token, ":", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "test-ak", parts[0])

	raw, err := base64.URLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	var policy struct {
		Scope    string `json:"scope"`
		Deadline uint64 `json:"deadline"`
	}
	require.NoError(t, json.Unmarshal(raw, &policy))

	assert.Equal(t, "my-bucket:.well-known/acme-challenge/abc123", policy.Scope)

	now := uint64(time.Now().Unix())
	assert.GreaterOrEqual(t, policy.Deadline, now+uploadTokenTTL-60)
	assert.LessOrEqual(t, policy.Deadline, now+uploadTokenTTL+60)
}

func TestQiniuUpload(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())
	path := writeTempFile(t, "xyz789")

	var gotKey, gotFile string
	store.putFile = func(ctx context.Context, ret interface{}, upToken, key, localFile string, extra *qstorage.PutExtra) error {
		gotKey = key
		gotFile = localFile
		putRet := ret.(*qstorage.PutRet)
		putRet.Key = key
		putRet.Hash = "FvBKB6vGEjiNcOJw0Z-fXbeicpD8"
		return nil
	}

	err := store.Upload(".well-known/acme-challenge/abc123", path)
	require.NoError(t, err)
	assert.Equal(t, ".well-known/acme-challenge/abc123", gotKey)
	assert.Equal(t, path, gotFile)
}

func TestQiniuUploadDigestMismatch(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())
	path := writeTempFile(t, "xyz789")

	store.putFile = func(ctx context.Context, ret interface{}, upToken, key, localFile string, extra *qstorage.PutExtra) error {
		putRet := ret.(*qstorage.PutRet)
		putRet.Key = key
		putRet.Hash = "bogus-hash"
		return nil
	}

	err := store.Upload(".well-known/acme-challenge/abc123", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestQiniuUploadKeyMismatch(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())
	path := writeTempFile(t, "xyz789")

	store.putFile = func(ctx context.Context, ret interface{}, upToken, key, localFile string, extra *qstorage.PutExtra) error {
		putRet := ret.(*qstorage.PutRet)
		putRet.Key = "something-else"
		putRet.Hash = "FvBKB6vGEjiNcOJw0Z-fXbeicpD8"
		return nil
	}

	err := store.Upload(".well-known/acme-challenge/abc123", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key mismatch")
}

func TestQiniuUploadError(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())
	path := writeTempFile(t, "xyz789")

	store.putFile = func(ctx context.Context, ret interface{}, upToken, key, localFile string, extra *qstorage.PutExtra) error {
		return errors.New("upload refused")
	}

	err := store.Upload(".well-known/acme-challenge/abc123", path)
	assert.EqualError(t, err, "upload refused")
}

func TestQiniuDelete(t *testing.T) {
	store := NewQiniuStore(qiniuTestConfig())

	var gotBucket, gotKey string
	store.deleteObject = func(bucket, key string) error {
		gotBucket = bucket
		gotKey = key
		return nil
	}

	require.NoError(t, store.Delete(".well-known/acme-challenge/abc123"))
	assert.Equal(t, "my-bucket", gotBucket)
	assert.Equal(t, ".well-known/acme-challenge/abc123", gotKey)
}
