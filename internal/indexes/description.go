package indexes

const ListIndexesDescription = `
List the Splunk indexes visible to the configured credentials, with event counts, size on disk, and the time range of indexed data.

Parameters:
- filter_pattern: (Optional) Case-insensitive substring to filter index names, e.g. "web" matches "web_access" and "webapp".

Use this to discover which indexes exist before constructing splunk_search or splunk_monitor queries.
`
