package constants

// Splunk REST API endpoints (relative to the management base URL)
const (
	// Search job endpoints
	EndpointSearchJobs       = "/services/search/jobs"
	EndpointSearchJob        = "/services/search/jobs/%s"
	EndpointSearchJobResults = "/services/search/jobs/%s/results"

	// Metadata endpoints
	EndpointIndexes    = "/services/data/indexes"
	EndpointServerInfo = "/services/server/info"
)

// HTTP Headers
const (
	HeaderAccept          = "Accept"
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderUserAgent       = "User-Agent"
	HeaderContentTypeForm = "application/x-www-form-urlencoded"
	HeaderAcceptJSON      = "application/json"
)

// Bearer token prefix
const BearerPrefix = "Bearer "

// User Agent
const UserAgentSplunkMCP = "Splunk-MCP-Server/1.0"
