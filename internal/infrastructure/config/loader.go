package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvFileVar names an extra dotenv file loaded after every other one
const EnvFileVar = "JAMSTACK_CMS_ENV_FILE"

// buildEnvironment returns the environment name used to pick .env.<name>.
// Site builds usually only set the generator's own variables, so those are
// consulted after ENVIRONMENT.
func buildEnvironment() string {
	for _, name := range []string{"ENVIRONMENT", "GATSBY_ACTIVE_ENV", "NODE_ENV"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// envFiles lists the dotenv files to consider, lowest precedence first
func envFiles() []string {
	files := []string{".env"}
	if env := buildEnvironment(); env != "" {
		files = append(files, ".env."+env)
	}
	return append(files, ".env.local")
}

// loadEnvFiles loads the dotenv files in order of precedence. The base .env
// never overrides the process environment; later files do. Missing files are
// skipped, except an explicitly requested one.
func loadEnvFiles() error {
	for i, file := range envFiles() {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		load := godotenv.Overload
		if i == 0 {
			load = godotenv.Load
		}
		if err := load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	if extra := os.Getenv(EnvFileVar); extra != "" {
		if err := godotenv.Overload(extra); err != nil {
			return fmt.Errorf("failed to load %s=%s: %w", EnvFileVar, extra, err)
		}
	}

	return nil
}
