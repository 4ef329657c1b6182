package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

const (
	AdmissionRejectBeforeAccept     = "reject_before_accept"
	AdmissionAcceptThenAuthenticate = "accept_then_authenticate"

	MessageStoreMySQL = "mysql"
	MessageStoreMongo = "mongo"

	VerifierModeJWT    = "jwt"
	VerifierModeRemote = "remote"
)

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("im.admission", AdmissionRejectBeforeAccept)
	viper.SetDefault("im.auth_timeout", 10)
	viper.SetDefault("im.outbox_size", 256)
	viper.SetDefault("im.max_message_size", 8192)
	viper.SetDefault("im.message_store", MessageStoreMySQL)
	viper.SetDefault("verifier.mode", VerifierModeJWT)
	viper.SetDefault("verifier.cookie_name", "courier_session")
	viper.SetDefault("verifier.remote_timeout", 5)
	viper.SetDefault("cron.presence_sync", "0 */1 * * * *")
}

// Validate 校验枚举类配置项
func (c *Config) Validate() error {
	switch c.IM.Admission {
	case AdmissionRejectBeforeAccept, AdmissionAcceptThenAuthenticate:
	default:
		return fmt.Errorf("unknown im.admission %q", c.IM.Admission)
	}
	switch c.IM.MessageStore {
	case MessageStoreMySQL, MessageStoreMongo:
	default:
		return fmt.Errorf("unknown im.message_store %q", c.IM.MessageStore)
	}
	switch c.Verifier.Mode {
	case VerifierModeJWT:
		if c.Verifier.JWTSecret == "" {
			return errors.New("verifier.jwt_secret is required in jwt mode")
		}
	case VerifierModeRemote:
		if c.Verifier.RemoteURL == "" {
			return errors.New("verifier.remote_url is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown verifier.mode %q", c.Verifier.Mode)
	}
	return nil
}
