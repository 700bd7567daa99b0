package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so tests start from a known state.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "SESSION_SECRET",
		"QUESTIONS_FILE", "QUESTIONS_PER_GAME",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.AllowedOrigins)
	require.NotEmpty(t, cfg.SessionSecret, "development falls back to an insecure default")
	require.Equal(t, 5, cfg.QuestionsPerGame)
	require.False(t, cfg.AvatarStorageEnabled())
}

func TestLoadConfigPort(t *testing.T) {
	clearEnv(t)

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("privileged port rejected", func(t *testing.T) {
		t.Setenv("PORT", "80")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 9000, cfg.Port)
	})
}

func TestLoadConfigSessionSecret(t *testing.T) {
	clearEnv(t)

	t.Run("required outside development", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("accepted when provided", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("SESSION_SECRET", "super-secret")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "super-secret", cfg.SessionSecret)
	})
}

func TestLoadConfigAllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigQuestionsPerGame(t *testing.T) {
	clearEnv(t)

	t.Run("must be positive", func(t *testing.T) {
		t.Setenv("QUESTIONS_PER_GAME", "0")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("custom value", func(t *testing.T) {
		t.Setenv("QUESTIONS_PER_GAME", "8")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 8, cfg.QuestionsPerGame)
	})
}

func TestLoadConfigS3AllOrNothing(t *testing.T) {
	clearEnv(t)

	t.Run("partial settings are rejected", func(t *testing.T) {
		t.Setenv("S3_BUCKET_NAME", "avatars")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("complete settings enable avatar storage", func(t *testing.T) {
		t.Setenv("S3_BUCKET_NAME", "avatars")
		t.Setenv("S3_ENDPOINT", "https://s3.example")
		t.Setenv("S3_ACCESS_KEY_ID", "key")
		t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.True(t, cfg.AvatarStorageEnabled())
	})
}
