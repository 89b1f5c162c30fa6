package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret reads a secret from envName, or from the file named by envName_FILE.
// The file variant takes precedence so secrets can be mounted instead of exported.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if filePath := os.Getenv(fileEnv); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}
