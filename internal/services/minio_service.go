package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveStore keeps a JSON snapshot of every batch of archived tasks.
type ArchiveStore interface {
	SaveSnapshot(ctx context.Context, userID uuid.UUID, cutoff time.Time, tasks []*models.Task) (string, error)
}

// objectPutter is the part of *minio.Client used by the archive store.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioArchiveStore struct {
	client objectPutter
	bucket string
}

type archiveSnapshot struct {
	UserID     uuid.UUID      `json:"user_id"`
	Cutoff     string         `json:"cutoff"`
	ArchivedAt time.Time      `json:"archived_at"`
	Count      int            `json:"count"`
	Tasks      []*models.Task `json:"tasks"`
}

// NewMinioArchiveStore connects to MinIO and makes sure the archive bucket exists.
func NewMinioArchiveStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (ArchiveStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := ensureBucketExists(ctx, client, bucket); err != nil {
		return nil, fmt.Errorf("failed to prepare bucket %s: %w", bucket, err)
	}
	return &minioArchiveStore{client: client, bucket: bucket}, nil
}

func ensureBucketExists(ctx context.Context, client *minio.Client, bucketName string) error {
	found, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}

// SnapshotObjectName is archives/<user_id>/<cutoff>-<unix>.json.
func SnapshotObjectName(userID uuid.UUID, cutoff, at time.Time) string {
	return fmt.Sprintf("archives/%s/%s-%d.json", userID, cutoff.Format("2006-01-02"), at.Unix())
}

func (s *minioArchiveStore) SaveSnapshot(ctx context.Context, userID uuid.UUID, cutoff time.Time, tasks []*models.Task) (string, error) {
	now := time.Now().UTC()
	data, err := json.Marshal(archiveSnapshot{
		UserID:     userID,
		Cutoff:     cutoff.Format("2006-01-02"),
		ArchivedAt: now,
		Count:      len(tasks),
		Tasks:      tasks,
	})
	if err != nil {
		return "", err
	}

	objectName := SnapshotObjectName(userID, cutoff, now)
	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive snapshot: %w", err)
	}
	return objectName, nil
}
