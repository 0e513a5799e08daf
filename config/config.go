package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerPort string        `mapstructure:"SERVER_PORT"`
	GinMode    string        `mapstructure:"GIN_MODE"`
	Sheet      SheetConfig   `mapstructure:"SHEET"`
	BankFile   string        `mapstructure:"BANK_FILE"`
	Admin      AdminConfig   `mapstructure:"ADMIN"`
	Contact    ContactConfig `mapstructure:"CONTACT"`
	Log        LogConfig     `mapstructure:"LOG"`
}

// SheetConfig holds the Google Sheets source configuration
type SheetConfig struct {
	ID          string        `mapstructure:"ID"`
	Worksheet   string        `mapstructure:"WORKSHEET"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
}

// AdminConfig holds the admin surface auth configuration
type AdminConfig struct {
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	Issuer        string `mapstructure:"ISSUER"`
}

// ContactConfig holds the results-page contact link configuration
type ContactConfig struct {
	WhatsAppNumber  string `mapstructure:"WHATSAPP_NUMBER"`
	MessageTemplate string `mapstructure:"MESSAGE_TEMPLATE"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Dir   string `mapstructure:"DIR"`
	Level string `mapstructure:"LEVEL"`
}

// LoadConfig loads configuration from environment variables and config.yaml
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config") // config.yaml
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Set defaults
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("GIN_MODE", "debug") // gin.DebugMode, gin.ReleaseMode, gin.TestMode
	viper.SetDefault("SHEET.ID", "")
	viper.SetDefault("SHEET.WORKSHEET", "BANCO DE PREGUNTAS")
	viper.SetDefault("SHEET.CACHE_TTL", "5m")
	viper.SetDefault("SHEET.HTTP_TIMEOUT", "30s")
	viper.SetDefault("BANK_FILE", "") // optional local YAML bank, bypasses the sheet
	viper.SetDefault("ADMIN.JWT_SIGNING_KEY", "change-me-in-production")
	viper.SetDefault("ADMIN.ISSUER", "simulacro.example.com")
	viper.SetDefault("CONTACT.WHATSAPP_NUMBER", "")
	viper.SetDefault("CONTACT.MESSAGE_TEMPLATE", "Hola, acabo de terminar un simulacro con %d/%d correctas (%.1f%%). Quiero saber más sobre el curso completo.")
	viper.SetDefault("LOG.DIR", "logs")
	viper.SetDefault("LOG.LEVEL", "info")
	// Read from config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("config.yaml not found, using environment variables and defaults")
		} else {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}
	// Override with environment variables (e.g., SIMULACRO_SERVER_PORT)
	viper.SetEnvPrefix("SIMULACRO")
	viper.AutomaticEnv()
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.Sheet.ID == "" && cfg.BankFile == "" {
		return nil, fmt.Errorf("no question bank source configured: set SHEET.ID or BANK_FILE")
	}
	return &cfg, nil
}
