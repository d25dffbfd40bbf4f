// Package dispatch runs interaction handlers against the platform's
// acknowledgement deadline.
//
// Every interaction must be answered within three seconds, yet handlers
// call slow downstream services. The Dispatcher starts each handler in its
// own goroutine, detached from the HTTP request, and races it against
// the ack deadline:
//
//   - handler first: its rendered response is returned synchronously
//   - deadline first: an ephemeral deferred acknowledgement is returned and
//     a supervisor goroutine takes over the still-running handler
//
// The supervisor waits up to the grace window (measured from the start of
// the handler, bounded by the 15 minute token validity). If the handler
// finishes in time its response is delivered once through FollowUpSender;
// otherwise the placeholder stands. Follow-ups are never retried.
//
// Lifecycle:
//
//	RECEIVED → RESOLVED → EXECUTING → RESPONDED_IMMEDIATE
//	                                → RESPONDED_DEFERRED → FOLLOWED_UP
//	                                                     → GRACE_EXPIRED
//
// Error handling:
//   - Unresolvable command path → error returned, rejected as a client error
//   - Nothing registered → ephemeral "No handler found" reply
//   - Binding failure → ephemeral parse-failure reply, handler not run
//   - Handler error or panic → uniform ephemeral error container, on
//     either path
//
// Each transition is logged and published to the event hub, and each
// dispatch runs inside an OpenTelemetry span. Wait blocks on outstanding
// supervisors for graceful shutdown.
package dispatch
