package monitor

const MonitorDescription = `
Continuous monitoring of Splunk logs: runs a saved SPL query in the background at a fixed interval and buffers each poll's results until you retrieve them. Only one monitoring session can be active at a time.

Parameters:
- action: (Required) One of "start", "stop", "status", "get_results".
- query: (Required for start) SPL search query to monitor.
- interval: (Optional, start) Seconds between polls. Default: 60. Range: 10-3600.
- max_results: (Optional, start) Maximum events per poll. Default: 1000. Range: 1-10000.
- timeout: (Optional, start) Per-poll search timeout in seconds. Default: 60. Range: 10-300.
- clear_buffer: (Optional, get_results) Clear the buffer after retrieving. Default: true.

Behavior:
- Each poll searches the interval-sized window ending at the poll start, so consecutive polls tile time without gaps.
- A failed poll is recorded in the session status but does not stop monitoring.
- "start" fails while a session is active; call "stop" first.
- "stop" is a no-op success when nothing is running. Buffered results survive a stop and are discarded on the next "start".
- "get_results" returns batches in poll order as {poll_time, events} records.

Typical flow: start a session, periodically call get_results to drain new batches, check status for the last poll error and buffer depth, stop when done.
`
