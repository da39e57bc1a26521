package search

const SearchDescription = `
Execute a raw SPL query against Splunk indices and return the matching events.

Parameters:
- query: (Required) Raw SPL query to execute. A leading "search" command is added automatically when missing.
- earliest_time: (Optional) Start of the search window, as a Splunk time modifier ("-24h", "-15m", ISO timestamp). Default: "-24h".
- latest_time: (Optional) End of the search window. Default: "now".
- max_results: (Optional) Maximum events to return. Default: 100 (server-configurable). Range: 1-20000.
- timeout: (Optional) Search timeout in seconds. Default: 300 (server-configurable). Range: 1-3600.

The response contains the query, the effective time window, and the result events as returned by Splunk (fields such as _time, _raw, host, source, sourcetype, index).

For repeated execution of the same query at an interval, use the splunk_monitor tool instead.
`
