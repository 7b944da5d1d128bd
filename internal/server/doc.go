// Package server exposes a photocal.Maker over HTTP.
//
// Routes:
//
//	POST /make     multipart upload in, calendar PDF out
//	GET  /healthz  liveness probe, always "ok"
//	GET  /metrics  Prometheus exposition
//	/              static files from the configured directory
//
// Failures are answered with a status code and a short plain-text body that
// never contains filesystem paths; details go to the zap logger together
// with the request id echoed in the X-Request-ID header.
package server
