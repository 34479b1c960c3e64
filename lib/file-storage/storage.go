package filestorage

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/models"
	s3client "spice-portal-backend/s3"
)

type Provider interface {
	UploadFile(ctx context.Context, key string, file []byte, contentType string) error
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

var Instance Provider

func NewHandler(bucketName string) {
	Instance = &impl{
		s3client:   s3client.Client,
		bucketName: bucketName,
	}
}

type impl struct {
	s3client   *minio.Client
	bucketName string
}

func (i impl) ready() error {
	if i.s3client == nil {
		return errors.New("s3 storage is not configured")
	}
	return nil
}

func (i impl) UploadFile(ctx context.Context, key string, file []byte, contentType string) error {
	if err := i.ready(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := i.s3client.PutObject(ctx, i.bucketName, key, bytes.NewReader(file), int64(len(file)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, "error uploading %s", key)
	}
	log.WithField("key", key).WithField("size", len(file)).Debug("file uploaded")
	return nil
}

func (i impl) GetFile(ctx context.Context, key string) ([]byte, error) {
	if err := i.ready(); err != nil {
		return nil, err
	}
	object, err := i.s3client.GetObject(ctx, i.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", key)
	}
	defer object.Close()
	body, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Wrapf(models.ErrNotFound, "file %s", key)
		}
		return nil, errors.Wrapf(err, "error reading %s", key)
	}
	return body, nil
}

func (i impl) DeleteFile(ctx context.Context, key string) error {
	if err := i.ready(); err != nil {
		return err
	}
	err := i.s3client.RemoveObject(ctx, i.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "error deleting %s", key)
	}
	return nil
}
