// Package api defines the wire types of the paydesk HTTP API.
//
// It covers the user and payment-record resources, the request schemas for
// registration, login and record mutation, and the response envelopes every
// endpoint uses:
//
//	{"status":"success","data":{...}}
//	{"status":"fail","message":"..."}
//
// The package performs no I/O. Validation here is structural only (required
// fields, lengths, email shape); business rules for record fields are left to
// the caller.
package api
