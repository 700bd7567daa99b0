package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stamprally/internal/pkg/errs"
)

const (
	// MaxAvatarSizeMB is the maximum allowed avatar size in megabytes.
	MaxAvatarSizeMB = 2

	// MaxAvatarSize is the maximum allowed avatar size in bytes.
	MaxAvatarSize = MaxAvatarSizeMB * 1024 * 1024

	// PresignedURLDuration is the fixed duration for which an issued URL is valid (5 minutes).
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes defines the set of permitted MIME types for avatar images.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// AvatarKey derives the bucket key for a participant's avatar. One key per
// participant and extension, so re-uploads overwrite rather than accumulate.
func AvatarKey(userID uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("avatars/%s%s", userID.String(), ext)
}

// StaleAvatarKeys lists the participant's possible avatar keys under every other
// extension. An upload under a new extension gets a new key, so the previous object
// must be deleted or the participant ends up with two avatars in the bucket.
func StaleAvatarKeys(userID uuid.UUID, keep string) []string {
	keys := make([]string, 0, len(ExtToMIME))
	for ext := range ExtToMIME {
		key := fmt.Sprintf("avatars/%s%s", userID.String(), ext)
		if key != keep {
			keys = append(keys, key)
		}
	}
	return keys
}

// ValidateFileSize checks if the provided avatar size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAvatarSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks if the provided file name and MIME type name an allowed image
// format and agree with each other.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}
