package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var Client *minio.Client
var BucketName string

func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set")
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "bill-scans"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	var err error
	Client, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := Client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketName, err)
		}
	}

	return nil
}

// UploadScan stores a bill scan under YYYY/MM/{billID}{ext} and returns
// the object path for persistence
func UploadScan(ctx context.Context, billID string, reader io.Reader, size int64, contentType string) (string, error) {
	now := time.Now().UTC()
	objectName := fmt.Sprintf("%d/%02d/%s%s",
		now.Year(),
		now.Month(),
		billID,
		FileExtension(contentType),
	)

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload scan: %w", err)
	}

	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a 24h presigned URL for viewing a stored scan
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	url, err := Client.PresignedGetObject(ctx, BucketName, stripBucketPrefix(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// DeleteScan removes a stored scan
func DeleteScan(ctx context.Context, objectPath string) error {
	return Client.RemoveObject(ctx, BucketName, stripBucketPrefix(objectPath), minio.RemoveObjectOptions{})
}

func stripBucketPrefix(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// FileExtension maps a content type to a file extension
func FileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/tiff":
		return ".tif"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
