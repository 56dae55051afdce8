package config

import (
	"errors"
	"os"

	"github.com/hnstar/hnstar/pkg/database"
	"github.com/hnstar/hnstar/pkg/utilities"
)

// Config is the immutable process configuration. It is built once at startup
// and handed to every component that needs it; nothing reads the environment
// after this point.
type Config struct {
	BindAddr   string
	HashSecret string
	DB         database.Config
	Log        utilities.Config
}

// FromEnv assembles the configuration from environment variables.
// HASH_KEY is required: without the server secret no stored password hash
// can ever be verified.
func FromEnv() (Config, error) {
	secret := os.Getenv("HASH_KEY")
	if secret == "" {
		return Config{}, errors.New("HASH_KEY environment variable is required")
	}
	bind := os.Getenv("BIND_ADDR")
	if bind == "" {
		bind = "127.0.0.1:8000"
	}
	return Config{
		BindAddr:   bind,
		HashSecret: secret,
		DB:         database.ConfigFromEnv(),
		Log:        utilities.ConfigFromEnv(),
	}, nil
}
