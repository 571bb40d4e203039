// Package gateway wires taskgate's components into running servers.
//
// # Overview
//
// A Gateway owns the store and serves:
//
//   - the REST API for accounts and tasks (api.go)
//   - the embedded API documentation
//   - /health and /health/ready
//   - Prometheus metrics at metrics.path when enabled
//   - grpc.health.v1.Health when server.grpc_addr is set
//
// # Request Path
//
// Every HTTP request passes through three layers, outermost first:
//
//	instrument   request_id, access log, request counter and latency histogram
//	AccessGate   public paths pass; everything else needs a resolved principal
//	mux.Router   route dispatch and handlers
//
// Handlers read the acting user's email from the principal the gate
// attached, call the account or task service, and translate any failure
// with statusFor. Failure kinds map to status codes only here:
//
//	InvalidToken, Unauthorized, UnknownPrincipal      401
//	PermissionDenied                                  403
//	DuplicateTitle, DuplicateUser, TargetNotFound,
//	ResourceNotFound, InvalidInput                    400
//	RegistrationFailed, Internal                      500
//
// Error bodies are always {"error": "<message>"}. Success bodies of
// mutations are short text/plain messages such as "Task created!".
//
// # Lifecycle
//
// Run listens on the configured addresses and blocks. Servers run under an
// errgroup; when the context is canceled or one server fails, the gateway
// shuts down HTTP, then gRPC, then closes the store.
package gateway
