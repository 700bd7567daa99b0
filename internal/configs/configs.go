/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the resume-token secret,
and the question pool used by the collecting-stamps mini-game.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	SessionSecret  string

	// Mini-Game Settings
	QuestionsFile    string
	QuestionsPerGame int

	// S3 Storage Settings (optional; avatar uploads are disabled when unset)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// AvatarStorageEnabled reports whether all S3 settings required for avatar
// upload presigning were provided.
func (c *AppConfig) AvatarStorageEnabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" &&
		c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type
// conversions and validation. It returns a pointer to the AppConfig struct and any error
// encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// SessionSecret signs the resume tokens handed out on connect.
	sessionSecret := os.Getenv("SESSION_SECRET")
	if cfg.Environment == "development" {
		if sessionSecret == "" {
			sessionSecret = "your_default_insecure_secret_key_change_me"
		}
	} else {
		if sessionSecret == "" {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.SessionSecret = sessionSecret

	// --- Mini-Game Settings ---
	// QuestionsFile is optional; the embedded default pool is used when unset.
	cfg.QuestionsFile = os.Getenv("QUESTIONS_FILE")

	perGameStr := os.Getenv("QUESTIONS_PER_GAME")
	if perGameStr == "" {
		perGameStr = "5"
	}
	perGame, err := strconv.Atoi(perGameStr)
	if err != nil {
		return nil, fmt.Errorf("invalid QUESTIONS_PER_GAME environment variable: %w", err)
	}
	if perGame < 1 {
		return nil, fmt.Errorf("QUESTIONS_PER_GAME must be at least 1, got %d", perGame)
	}
	cfg.QuestionsPerGame = perGame

	// --- S3 Storage Settings ---
	// All four settings must be provided together or avatar uploads stay disabled.
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	s3Fields := []string{cfg.S3BucketName, cfg.S3Endpoint, cfg.S3AccessKeyID, cfg.S3SecretAccessKey}
	provided := 0
	for _, f := range s3Fields {
		if f != "" {
			provided++
		}
	}
	if provided > 0 && provided < len(s3Fields) {
		return nil, fmt.Errorf("incomplete S3 configuration: S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must all be set to enable avatar storage")
	}

	return cfg, nil
}
