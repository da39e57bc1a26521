package models

// Config holds the server configuration parameters
type Config struct {
	// Splunk connection settings
	BaseURL   string // Splunk management API URL, e.g. https://splunk.example.com:8089
	Username  string // Splunk username (used with Password when AuthToken is empty)
	Password  string // Splunk password
	AuthToken string // Splunk bearer token, takes precedence over username/password
	VerifySSL bool   // Verify the Splunk server TLS certificate

	// Search defaults
	MaxResultsDefault int // Default result cap for one-shot searches
	SearchTimeout     int // Default per-search timeout in seconds

	// Rate limiting configuration
	RequestRateLimit float64 // Maximum search submissions per second
	RequestRateBurst int     // Maximum burst capacity for search submissions

	// HTTP transport settings (stdio is used when HTTPMode is false)
	HTTPMode bool
	Host     string
	Port     string

	// Logging
	LogLevel  string // zerolog level name: debug, info, warn, error
	LogFormat string // "console" or "json"
}
