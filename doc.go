// Package orgvclient is the Go client for the OrgV identity platform: a
// cookie-session REST surface spanning the auth, user, and admin services,
// fronted by a client-side session and challenge-response coordinator.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// orgvclient is the public surface. It exposes [Client], [Builder], [Config],
// [SessionState], the six challenge flows, and wire types. Durable client
// state (device identifier, cross-instance logout key) lives under internal/
// and is never exported; cross-instance signal transports live under signal/.
//
// # Coordinator contract
//
//   - Every outbound request carries X-Device-Id and, when present, the
//     X-CSRF-Token mirror of the CSRF-Token cookie. Header stamping is
//     synchronous and performs no I/O.
//   - A 401 response triggers at most one concurrent refresh call; requests
//     failing while a refresh is in flight are queued and replayed in FIFO
//     order once it settles. A request is never retried twice.
//   - When refresh itself fails, the coordinator broadcasts session expiry
//     instead of surfacing the raw error, except for pre-auth endpoints.
package orgvclient
