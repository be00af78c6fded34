package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Task queue (RabbitMQ) for the matching pipeline stages.
	AMQPURL string `mapstructure:"AMQP_URL"`

	// Geocoding collaborator (Nominatim-compatible search endpoint).
	GeocoderBaseURL string `mapstructure:"GEOCODER_BASE_URL"`

	// Outbound mail (SES).
	AWSRegion  string `mapstructure:"AWS_REGION"`
	MailSender string `mapstructure:"MAIL_SENDER"`

	// Quote terms.
	Currency           string `mapstructure:"CURRENCY"`
	QuoteValidityHours int    `mapstructure:"QUOTE_VALIDITY_HOURS"`

	StripeAPIKey string
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CURRENCY", "EUR")
	viper.SetDefault("QUOTE_VALIDITY_HOURS", 72)

	err := viper.ReadInConfig()
	if err != nil {
		// Allow a missing .env file; everything can come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	return &cfg, nil
}
