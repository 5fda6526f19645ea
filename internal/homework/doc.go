// Package homework turns raw status-API payloads into notification text.
//
// The pipeline is Validate -> Parser.Parse. Every failure is an *Error with a
// closed Kind so the caller can label it without inspecting message text.
package homework
