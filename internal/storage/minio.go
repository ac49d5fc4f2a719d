package storage

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ObjectStore keeps generated export archives.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
	// RemoveOlderThan deletes every object under prefix last modified before cutoff
	// and returns how many were removed.
	RemoveOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type Minio struct {
	client *minio.Client
	bucket string
}

var _ ObjectStore = (*Minio)(nil)

// NewMinio connects to MinIO and creates the bucket if it does not exist.
func NewMinio(ctx context.Context, opts MinioOptions, log logrus.FieldLogger) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", opts.Bucket)
	}
	if !exists {
		if err = client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", opts.Bucket)
		}
		log.WithField("bucket", opts.Bucket).Info("created bucket")
	}

	return &Minio{client: client, bucket: opts.Bucket}, nil
}

func (m *Minio) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return errors.Wrapf(err, "put %s", key)
}

func (m *Minio) PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	reqParams := url.Values{}
	reqParams.Set("response-content-disposition", `attachment; filename="`+filename+`"`)
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, reqParams)
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return u.String(), nil
}

func (m *Minio) Remove(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "remove %s", key)
}

func (m *Minio) RemoveOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	list := func(ctx context.Context) <-chan minio.ObjectInfo {
		return m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	}
	return removeListed(ctx, list, m.Remove, cutoff)
}

// removeListed removes listed objects modified before cutoff. The listing is
// cancelled on return so its producer goroutine stops on early exits.
func removeListed(ctx context.Context, list func(context.Context) <-chan minio.ObjectInfo,
	remove func(context.Context, string) error, cutoff time.Time) (int, error) {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	removed := 0
	for obj := range list(listCtx) {
		if obj.Err != nil {
			return removed, errors.Wrap(obj.Err, "list objects")
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := remove(ctx, obj.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
