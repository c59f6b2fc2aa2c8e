// Package client is the user-facing side of the service: a persisted login
// session, a typed HTTP client for the API, and the diagnosis report renderer
// used by cmd/medcli.
package client
