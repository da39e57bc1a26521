package testutil

import (
	"splunk-mcp/internal/models"
)

// MockConfig creates a mock configuration for testing without requiring
// a real Splunk instance
func MockConfig() models.Config {
	return models.Config{
		BaseURL:           "https://splunk.example.com:8089",
		AuthToken:         "mock-auth-token",
		VerifySSL:         true,
		MaxResultsDefault: 100,
		SearchTimeout:     300,
		RequestRateLimit:  2,
		RequestRateBurst:  2,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}
