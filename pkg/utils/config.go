package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Email    EmailConfig
	Sms      SmsConfig
	OTP      OTPConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	TLS      bool
}

type SmsConfig struct {
	GatewayURL string
	APIKey     string
	Sender     string
}

// OTPConfig holds all challenge/verification knobs. Passed by value into
// the engine so thresholds cannot change under a running service.
type OTPConfig struct {
	Length            int
	TTLSeconds        int
	ResendCooldownSec int
	MaxSendPerWindow  int
	SendWindowSec     int
	MaxVerifyAttempts int
	HashIterations    int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SMTP_TLS", true)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("OTP_TTL_SECONDS", 300)
	viper.SetDefault("OTP_RESEND_COOLDOWN_SECONDS", 60)
	viper.SetDefault("OTP_MAX_SEND_PER_WINDOW", 3)
	viper.SetDefault("OTP_SEND_WINDOW_SECONDS", 600)
	viper.SetDefault("OTP_MAX_VERIFY_ATTEMPTS", 5)
	viper.SetDefault("OTP_HASH_ITERATIONS", 260000)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
			FromName: viper.GetString("EMAIL_FROM_NAME"),
			TLS:      viper.GetBool("SMTP_TLS"),
		},
		Sms: SmsConfig{
			GatewayURL: viper.GetString("SMS_GATEWAY_URL"),
			APIKey:     viper.GetString("SMS_API_KEY"),
			Sender:     viper.GetString("SMS_SENDER"),
		},
		OTP: OTPConfig{
			Length:            viper.GetInt("OTP_LENGTH"),
			TTLSeconds:        viper.GetInt("OTP_TTL_SECONDS"),
			ResendCooldownSec: viper.GetInt("OTP_RESEND_COOLDOWN_SECONDS"),
			MaxSendPerWindow:  viper.GetInt("OTP_MAX_SEND_PER_WINDOW"),
			SendWindowSec:     viper.GetInt("OTP_SEND_WINDOW_SECONDS"),
			MaxVerifyAttempts: viper.GetInt("OTP_MAX_VERIFY_ATTEMPTS"),
			HashIterations:    viper.GetInt("OTP_HASH_ITERATIONS"),
		},
	}

	return config, nil
}
