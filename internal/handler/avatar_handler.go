/*
Package handler provides the HTTP handlers and routing setup for the Stamp Rally server.

This file contains the avatar presigning handlers. The session identity issued over the
WebSocket doubles as the REST credential: the client authenticates these endpoints with
the resume token it received on connect.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"stamprally/internal/app/storage"
	"stamprally/internal/pkg/auth/token"
	"stamprally/internal/pkg/errs"
	"stamprally/internal/pkg/logx"
	"stamprally/internal/pkg/randx"
	"stamprally/internal/pkg/req"
	"stamprally/internal/pkg/resp"
)

// PresignAvatarInput defines the JSON input structure for generating an avatar upload URL.
type PresignAvatarInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// bearerIdentity extracts and verifies the resume token from the Authorization header.
func bearerIdentity(r *http.Request, secret string) (uuid.UUID, *errs.CustomError) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return uuid.Nil, errs.NewError(errs.ErrResumeTokenInvalid)
	}

	userID, err := token.Parse(tokenString, secret)
	if err != nil {
		logx.Warn("Avatar request rejected: invalid resume token")
		return uuid.Nil, errs.NewError(errs.ErrResumeTokenInvalid)
	}

	return userID, nil
}

// HandlePresignAvatarUpload creates an HTTP HandlerFunc that issues a time-limited,
// pre-signed URL for uploading the caller's profile picture.
func HandlePresignAvatarUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnsupportedMediaType))
			return
		}

		userID, customErr := bearerIdentity(r, deps.Config.SessionSecret)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := storage.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := storage.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileKey := storage.AvatarKey(userID, input.FileName)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			storage.PresignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		// Replacing an avatar under a new extension leaves the old object behind on a
		// different key. Best effort: a failed delete never blocks the upload.
		for _, staleKey := range storage.StaleAvatarKeys(userID, fileKey) {
			if err := deps.StorageService.Delete(r.Context(), staleKey); err != nil {
				logx.Warn("failed to delete a replaced avatar", "file_key", staleKey)
			}
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignAvatarDownload creates an HTTP HandlerFunc that issues a pre-signed URL
// for fetching a stored avatar by its file key.
func HandlePresignAvatarDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnsupportedMediaType))
			return
		}

		if _, customErr := bearerIdentity(r, deps.Config.SessionSecret); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		rawTarget := r.URL.Query().Get("userId")
		targetID, customErr := randx.ParseID("userId", rawTarget)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileName := r.URL.Query().Get("fileName")
		if fileName == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingField, "fileName"))
			return
		}

		fileKey := storage.AvatarKey(targetID, fileName)

		exists, err := deps.StorageService.Exists(r.Context(), fileKey)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}
		if !exists {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
		}
		resp.RespondSuccess(w, r, data)
	}
}
