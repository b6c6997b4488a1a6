// Package connection implements the live message Connection Manager.
//
// The Connection Manager:
//   - Owns at most one WebSocket to the chat projection's message stream
//   - Reports connection state (CLOSED, OPEN, ERROR)
//   - Decodes inbound JSON frames and hands them to a single subscriber
//   - Reconnects after a fixed delay, indefinitely, while an endpoint is set
package connection
