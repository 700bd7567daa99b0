package handler

import (
	"stamprally/internal/app/session"
	"stamprally/internal/app/storage"
	"stamprally/internal/configs"
)

// AppDeps bundles the shared dependencies handed to every HTTP handler.
// StorageService is nil when avatar storage is not configured.
type AppDeps struct {
	Coordinator    *session.Coordinator
	Config         *configs.AppConfig
	StorageService storage.StorageService
}
