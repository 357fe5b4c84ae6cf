// Package transport defines the service interfaces and the HTTP middleware
// chain for the paydesk API.
//
// The transport layer bridges HTTP clients and the account, record and
// export services. Handlers in the http subpackage decode requests into the
// types defined in pkg/api, call one of the service interfaces declared
// here, and encode the result in the {"status": ..., ...} envelope.
//
// # Service Interfaces
//
//   - AccountService handles registration, login and user lookups.
//   - RecordService handles payment record CRUD.
//   - ExportService builds and retrieves spreadsheet exports.
//
// Services return *api.APIError for failures the client should see; any
// other error is reported as a 500 without leaking details.
//
// # Middleware
//
// Middleware wraps net/http handlers. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID), and structured logging
// via log/slog.
package transport
