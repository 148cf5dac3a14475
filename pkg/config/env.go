package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads .env.local then .env into the process environment,
// local file taking precedence. Missing files are not an error.
func LoadEnvFiles() error {
	envFiles := []string{".env.local", ".env"}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// GetProviderAPIKey looks up "<PROVIDER>_API_KEY" for an arbitrary,
// caller-supplied provider name. Model providers are not baked in here;
// the council runtime treats provider identity as an opaque string (see
// pkg/modelexec.ModelTask.Model).
func GetProviderAPIKey(providerType string) string {
	if providerType == "" {
		return ""
	}
	return os.Getenv(strings.ToUpper(providerType) + "_API_KEY")
}
