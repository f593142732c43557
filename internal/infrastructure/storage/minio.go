package storage

import (
	"context"
	"fmt"

	"telehealth-service/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// NewMinioClient connects to object storage and makes sure the prescription bucket exists
func NewMinioClient(ctx context.Context, cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.PrescriptionBkt)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.PrescriptionBkt, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.PrescriptionBkt, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.PrescriptionBkt, err)
		}
		logrus.Infof("Created bucket %s", cfg.PrescriptionBkt)
	}

	logrus.Info("Successfully connected to MinIO")

	return client, nil
}
