package discovery

const ServerInfoDescription = `
Report version, build, and server name of the connected Splunk instance. Takes no parameters.

Use this to verify connectivity and credentials before running searches.
`
