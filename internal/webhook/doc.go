// Package webhook implements the interactions callback endpoint.
//
// The platform POSTs every interaction to a single URL, signed with the
// application's Ed25519 key. Each request carries the hex signature in
// X-Signature-Ed25519 and the signed timestamp in X-Signature-Timestamp;
// the signed message is the timestamp bytes followed by the raw body.
//
// # Security Model
//
// - Signatures are verified before the body is decoded; an unauthenticated
// body is rejected outright
// - The public key is validated as a curve point at startup
// - Body size limits enforced (413 if too large)
// - Error responses never echo signature details
// - Request logging excludes payloads
//
// # Request Flow
//
//  1. HTTP POST arrives at the configured path (default /interactions)
//  2. Signature headers checked (400 if missing)
//  3. Body read up to max_body_size
//  4. Ed25519 signature verified over timestamp ++ body (401 on mismatch)
//  5. Envelope decoded (400 if malformed)
//  6. Dispatcher produces the synchronous response, either the handler's
//     reply or a deferred acknowledgement
//  7. 200 with the JSON response
//
// GET /_health answers "OK". When an event hub is supplied, GET /events
// streams interaction lifecycle events as server-sent events, guarded by a
// bearer key if events_api_key is set.
//
// # Example Usage
//
//	verifier, err := webhook.NewVerifier(cfg.Discord.PublicKey)
//	if err != nil {
//		return err
//	}
//	server := webhook.New(webhook.Config{Listen: ":8080"}, verifier, dispatcher, hub, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
