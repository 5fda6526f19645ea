// Package logx configures hwbot's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, one event per line
//   - Credentials out of the logs (see Secret)
package logx
