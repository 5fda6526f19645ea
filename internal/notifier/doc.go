// Package notifier delivers notification text to the configured recipient.
//
// Delivery goes through a transport.Sender (the Telegram adapter in
// production). Sends are paced by a token bucket and bounded by a per-send
// timeout. Failures are returned as delivery errors for the caller to log;
// the notifier itself never retries.
//
// # History
//
// For operator visibility the service keeps a small in-memory ring of the
// most recent delivery attempts. It is not persisted.
package notifier
