/*
Package httpserver serves the FinCrypt API over HTTP.

The server holds one private key, loaded through the same key stores as the
command line tool, and exposes encrypt, decrypt and key listing endpoints
(see package api for the wire format) alongside health and drain endpoints:

  - GET /livez    - liveness probe
  - GET /readyz   - readiness probe, 503 while draining
  - GET /drain    - mark the server not ready
  - GET /undrain  - mark the server ready again
  - /debug/pprof  - profiling, when enabled

Requests are logged with httplogger, tagged with a request id, and limited per
client address with a token bucket. Prometheus metrics are served on a
separate listener.
*/
package httpserver
