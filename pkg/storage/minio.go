// Package storage wraps the object store. The pipeline and export services
// depend on the ObjectStore interface so tests can swap in an in-memory fake.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/varunaditya27/EduSynth/config"
)

type ObjectStore interface {
	UploadFile(ctx context.Context, objectKey, localPath, contentType string) (string, error)
	UploadBytes(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, objectKey, localPath string) error
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
	Remove(ctx context.Context, objectKey string) error
	URL(objectKey string) string
}

type minioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(client *minio.Client, bucket config.Bucket) ObjectStore {
	return &minioStore{
		client:    client,
		bucket:    bucket.Name,
		publicURL: strings.TrimRight(bucket.PublicURL, "/"),
	}
}

func (s *minioStore) UploadFile(ctx context.Context, objectKey, localPath, contentType string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return s.URL(objectKey), nil
}

func (s *minioStore) UploadBytes(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return s.URL(objectKey), nil
}

func (s *minioStore) Download(ctx context.Context, objectKey, localPath string) error {
	err := s.client.FGetObject(ctx, s.bucket, objectKey, localPath, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("download %s: %w", objectKey, err)
	}
	return nil
}

func (s *minioStore) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", objectKey, err)
	}
	return data, nil
}

func (s *minioStore) Remove(ctx context.Context, objectKey string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (s *minioStore) URL(objectKey string) string {
	return s.publicURL + "/" + strings.TrimLeft(objectKey, "/")
}
