package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/parleyhq/parley/errors"
)

// LoadEnvFiles loads environment variables from dotenv files before the rest
// of the configuration is read. Priority: .env.local, then .env, then the
// process environment (godotenv never overrides variables already set).
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to load %s", file)
		}
	}
	return nil
}
