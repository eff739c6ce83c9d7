package intake

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const uploadPrefix = "uploads"

// ObjectStorage сохраняет содержимое вложения и возвращает постоянный URL,
// по которому файл доступен напрямую.
type ObjectStorage interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

type minioStorage struct {
	client     *minio.Client
	bucketName string
	baseURL    string
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (ObjectStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, errBucket := client.BucketExists(ctx, bucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		// Возвращаемые URL должны открываться напрямую, поэтому префикс
		// uploads/ доступен на чтение без авторизации.
		if err := client.SetBucketPolicy(ctx, bucket, uploadsReadPolicy(bucket)); err != nil {
			return nil, err
		}
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &minioStorage{
		client:     client,
		bucketName: bucket,
		baseURL:    fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket),
	}, nil
}

// uploadsReadPolicy разрешает анонимное чтение объектов под uploads/,
// остальная часть bucket остаётся закрытой.
func uploadsReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s/*"]}]}`, bucket, uploadPrefix)
}

// Save кладёт файл под ключом uploads/<uuid><ext>. Ключ выбирает хранилище,
// вызывающий получает только итоговый URL.
func (s *minioStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	objectKey := fmt.Sprintf("%s/%s%s", uploadPrefix, uuid.New().String(), ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"filename": filename},
	})
	if err != nil {
		return "", err
	}

	return s.baseURL + "/" + objectKey, nil
}
