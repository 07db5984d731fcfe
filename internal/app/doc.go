// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App loads a deployment descriptor, deploys its modules into a router,
// fires periodic events and, when a port is configured, serves the HTTP API
// until its context is cancelled.
package app
