/*
Package storage provides the avatar object store backing the profile-picture flow.

Avatars never pass through the server: the client uploads and downloads directly
against an S3-compatible bucket using short-lived pre-signed URLs issued here.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService defines the public interface for the avatar storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL the client can PUT the avatar to.
	// The URL is bound to the given key, MIME type, and exact byte size.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for fetching a stored avatar.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Exists reports whether an object with the given key is present in the bucket.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object with the given key. Replacing an avatar deletes the
	// previous one so the bucket holds at most one object per participant.
	Delete(ctx context.Context, key string) error
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
