package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stamprally/internal/configs"
	"stamprally/internal/pkg/auth/token"
	"stamprally/internal/pkg/errs"
)

const handlerTestSecret = "handler-test-secret"

// stubStorage records presign calls and serves canned URLs.
type stubStorage struct {
	uploadKeys   []string
	downloadKeys []string
	deletedKeys  []string
	existing     map[string]bool
}

func (s *stubStorage) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	s.uploadKeys = append(s.uploadKeys, key)
	return "https://bucket.example/upload/" + key, nil
}

func (s *stubStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	s.downloadKeys = append(s.downloadKeys, key)
	return "https://bucket.example/download/" + key, nil
}

func (s *stubStorage) Exists(_ context.Context, key string) (bool, error) {
	return s.existing[key], nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.deletedKeys = append(s.deletedKeys, key)
	return nil
}

func testDeps(storage *stubStorage) *AppDeps {
	return &AppDeps{
		Config: &configs.AppConfig{
			Environment:   "development",
			SessionSecret: handlerTestSecret,
		},
		StorageService: storage,
	}
}

func bearerFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	signed, err := token.Generate(userID, handlerTestSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + signed
}

// decodeBody unpacks the resp envelope {code, message, data}.
func decodeBody(t *testing.T, body *bytes.Buffer) (int, map[string]any) {
	t.Helper()

	var envelope struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Code, envelope.Data
}

func TestHandlePresignAvatarUpload(t *testing.T) {
	userID := uuid.New()

	post := func(t *testing.T, deps *AppDeps, auth string, body any) *httptest.ResponseRecorder {
		t.Helper()

		raw, err := json.Marshal(body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/user/avatar/presign", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		recorder := httptest.NewRecorder()
		HandlePresignAvatarUpload(deps)(recorder, req)
		return recorder
	}

	validInput := map[string]any{
		"fileName": "me.png",
		"mimeType": "image/png",
		"fileSize": 1024,
	}

	t.Run("issues an upload URL for a valid request", func(t *testing.T) {
		storage := &stubStorage{}
		recorder := post(t, testDeps(storage), bearerFor(t, userID), validInput)

		require.Equal(t, http.StatusOK, recorder.Code)
		_, data := decodeBody(t, recorder.Body)
		require.Equal(t, "avatars/"+userID.String()+".png", data["fileKey"])
		require.Contains(t, data["presignedUrl"], "https://bucket.example/upload/")
		require.Len(t, storage.uploadKeys, 1)
	})

	t.Run("replacing an avatar deletes the keys under other extensions", func(t *testing.T) {
		storage := &stubStorage{}
		recorder := post(t, testDeps(storage), bearerFor(t, userID), validInput)
		require.Equal(t, http.StatusOK, recorder.Code)

		newKey := "avatars/" + userID.String() + ".png"
		require.NotContains(t, storage.deletedKeys, newKey)
		require.Contains(t, storage.deletedKeys, "avatars/"+userID.String()+".jpg")
		require.Contains(t, storage.deletedKeys, "avatars/"+userID.String()+".webp")
		require.Contains(t, storage.deletedKeys, "avatars/"+userID.String()+".gif")
	})

	t.Run("rejects a missing or forged token", func(t *testing.T) {
		storage := &stubStorage{}

		recorder := post(t, testDeps(storage), "", validInput)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		recorder = post(t, testDeps(storage), "Bearer garbage", validInput)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		require.Empty(t, storage.uploadKeys)
	})

	t.Run("rejects a bad file type", func(t *testing.T) {
		storage := &stubStorage{}
		recorder := post(t, testDeps(storage), bearerFor(t, userID), map[string]any{
			"fileName": "me.exe",
			"mimeType": "application/octet-stream",
			"fileSize": 1024,
		})

		code, _ := decodeBody(t, recorder.Body)
		require.Equal(t, errs.ErrFileTypeInvalid, code)
		require.Empty(t, storage.uploadKeys)
	})

	t.Run("rejects an oversized file", func(t *testing.T) {
		storage := &stubStorage{}
		recorder := post(t, testDeps(storage), bearerFor(t, userID), map[string]any{
			"fileName": "me.png",
			"mimeType": "image/png",
			"fileSize": 100 * 1024 * 1024,
		})

		code, _ := decodeBody(t, recorder.Body)
		require.Equal(t, errs.ErrFileSizeTooLarge, code)
	})

	t.Run("without storage configured the endpoint is off", func(t *testing.T) {
		deps := testDeps(nil)
		deps.StorageService = nil

		recorder := post(t, deps, bearerFor(t, userID), validInput)
		code, _ := decodeBody(t, recorder.Body)
		require.Equal(t, errs.ErrUnsupportedMediaType, code)
	})
}

func TestHandlePresignAvatarDownload(t *testing.T) {
	caller := uuid.New()
	target := uuid.New()

	get := func(t *testing.T, deps *AppDeps, auth, query string) *httptest.ResponseRecorder {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/api/user/avatar/presign-download"+query, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		recorder := httptest.NewRecorder()
		HandlePresignAvatarDownload(deps)(recorder, req)
		return recorder
	}

	t.Run("issues a download URL for a stored avatar", func(t *testing.T) {
		storage := &stubStorage{existing: map[string]bool{
			"avatars/" + target.String() + ".png": true,
		}}

		recorder := get(t, testDeps(storage), bearerFor(t, caller),
			"?userId="+target.String()+"&fileName=me.png")

		require.Equal(t, http.StatusOK, recorder.Code)
		_, data := decodeBody(t, recorder.Body)
		require.Contains(t, data["presignedUrl"], "https://bucket.example/download/")
	})

	t.Run("unknown avatar", func(t *testing.T) {
		storage := &stubStorage{existing: map[string]bool{}}

		recorder := get(t, testDeps(storage), bearerFor(t, caller),
			"?userId="+target.String()+"&fileName=me.png")

		code, _ := decodeBody(t, recorder.Body)
		require.Equal(t, errs.ErrUserNotFound, code)
		require.Empty(t, storage.downloadKeys)
	})

	t.Run("malformed target id", func(t *testing.T) {
		storage := &stubStorage{}

		recorder := get(t, testDeps(storage), bearerFor(t, caller), "?userId=nope&fileName=me.png")

		code, _ := decodeBody(t, recorder.Body)
		require.Equal(t, errs.ErrInvalidID, code)
	})
}
