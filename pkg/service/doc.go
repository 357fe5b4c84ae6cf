// Package service implements the account, record and export operations
// behind the HTTP API. It sits between the transport layer and the
// storage, auth and export packages and reports client-visible failures
// as *api.APIError.
package service
