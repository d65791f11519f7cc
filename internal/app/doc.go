// Package app wires the stockwatch service together: configuration,
// logging, observability, the SQLite store, the OCR and pricing clients,
// the websocket hub, the price monitor and the HTTP server. It owns the
// startup and graceful-shutdown sequence.
package app
