package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"plutus-education/certificate-runner/internal/notify"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Assets  AssetsConfig  `json:"assets"`
	Output  OutputConfig  `json:"output"`
	Email   EmailConfig   `json:"email"`
	Gate    GateConfig    `json:"gate"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig represents portal server configuration.
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	UploadsDir   string        `json:"uploads_dir"`
}

// AssetsConfig locates bundled design assets.
type AssetsConfig struct {
	FontsDir string `json:"fonts_dir"`
}

// OutputConfig controls where generated certificates land.
type OutputConfig struct {
	Dir string `json:"dir"`
}

// EmailConfig wraps SMTP settings plus the message templates. Subject and
// body may contain a {name} placeholder.
type EmailConfig struct {
	SMTP            notify.EmailConfig `json:"smtp"`
	SubjectTemplate string             `json:"subject_template"`
	BodyTemplate    string             `json:"body_template"`
}

// GateConfig guards the interactive portal. An empty AppPass leaves the
// gate open.
type GateConfig struct {
	AppPass string `json:"app_pass"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `json:"level"`
}

// Message returns the configured notification template, falling back to the
// stock message when unset.
func (c *EmailConfig) Message() notify.Message {
	msg := notify.DefaultMessage()
	if c.SubjectTemplate != "" {
		msg.Subject = c.SubjectTemplate
	}
	if c.BodyTemplate != "" {
		msg.Body = c.BodyTemplate
	}
	return msg
}

// GetServerAddr returns the portal listen address.
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig loads configuration from an optional JSON file and environment
// variables; environment values win.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			// Generation runs inside the request, so the write side gets
			// room for large rosters.
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			UploadsDir:   "uploads",
		},
		Assets: AssetsConfig{
			FontsDir: "assets/fonts",
		},
		Output: OutputConfig{
			Dir: "certificates",
		},
		Email: EmailConfig{
			SMTP: notify.EmailConfig{
				Port:     587,
				FromName: "Plutus Education",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		config.Server.UploadsDir = dir
	}
	if dir := os.Getenv("FONTS_DIR"); dir != "" {
		config.Assets.FontsDir = dir
	}
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if pass := os.Getenv("APP_PASS"); pass != "" {
		config.Gate.AppPass = pass
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.Email.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Email.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		config.Email.SMTP.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		config.Email.SMTP.Password = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		config.Email.SMTP.FromAddress = from
	}
	if name := os.Getenv("SMTP_FROM_NAME"); name != "" {
		config.Email.SMTP.FromName = name
	}
	if subject := os.Getenv("EMAIL_SUBJECT_TEMPLATE"); subject != "" {
		config.Email.SubjectTemplate = subject
	}
	if body := os.Getenv("EMAIL_BODY_TEMPLATE"); body != "" {
		config.Email.BodyTemplate = body
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
