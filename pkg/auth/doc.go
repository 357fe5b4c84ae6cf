// Package auth gates HTTP requests on session tokens and roles.
//
// A request passes through three stages before reaching a protected handler:
//
//  1. The [Extractor] pulls a candidate token from the request, trying each
//     [Source] in order (the "token" cookie, then an Authorization Bearer
//     header). The first source that finds a value wins.
//  2. A [TokenVerifier] checks structure, signature and expiry.
//  3. The [Resolver] maps the token subject to a live account.
//
// [Gate] composes these stages into middleware. It either binds the
// resolved [Identity] into the request context or short-circuits with a
// typed [Rejection] and a {"status":"fail","message":...} body. Role
// checks are composed per route with [Gate.RequireRole].
//
// The gate holds no mutable state; one instance serves all requests.
package auth
