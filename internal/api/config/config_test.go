package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		IM: IMConfig{
			Admission:    AdmissionRejectBeforeAccept,
			MessageStore: MessageStoreMySQL,
		},
		Verifier: VerifierConfig{
			Mode:      VerifierModeJWT,
			JWTSecret: "secret",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("should accept a complete configuration", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("should reject unknown admission strategy", func(t *testing.T) {
		cfg := validConfig()
		cfg.IM.Admission = "lazy"
		require.ErrorContains(t, cfg.Validate(), "im.admission")
	})

	t.Run("should reject unknown message store", func(t *testing.T) {
		cfg := validConfig()
		cfg.IM.MessageStore = "postgres"
		require.ErrorContains(t, cfg.Validate(), "im.message_store")
	})

	t.Run("should require a secret in jwt mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Verifier.JWTSecret = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("should require a remote url in remote mode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Verifier.Mode = VerifierModeRemote
		require.Error(t, cfg.Validate())

		cfg.Verifier.RemoteURL = "http://auth.local/api/auth/get-session"
		require.NoError(t, cfg.Validate())
	})
}
