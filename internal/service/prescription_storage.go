package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// PrescriptionFile is an uploaded prescription waiting to be stored
type PrescriptionFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

type PrescriptionStorage interface {
	// Upload stores the file and returns the URL saved on the appointment
	Upload(ctx context.Context, appointmentID uuid.UUID, file *PrescriptionFile) (string, error)
}

type minioPrescriptionStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewMinioPrescriptionStorage(client *minio.Client, bucket, publicBaseURL string) PrescriptionStorage {
	return &minioPrescriptionStorage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *minioPrescriptionStorage) Upload(ctx context.Context, appointmentID uuid.UUID, file *PrescriptionFile) (string, error) {
	objectName := prescriptionObjectName(appointmentID, file.Name)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, file.Content, file.Size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload prescription to bucket %s: %w", s.bucket, err)
	}

	return s.objectURL(objectName), nil
}

// prescriptionObjectName groups uploads under the appointment and keeps the file extension
func prescriptionObjectName(appointmentID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s%s", appointmentID, uuid.NewString(), strings.ToLower(path.Ext(fileName)))
}

func (s *minioPrescriptionStorage) objectURL(objectName string) string {
	if s.publicBaseURL == "" {
		return fmt.Sprintf("%s/%s", s.bucket, objectName)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, objectName)
}
