// Package gateway serves the same-origin HTTP API a chat front end calls.
//
// Reads are proxied to the chat projection and commands to the chat
// aggregate. The gateway also tells clients where the live message
// transport lives.
package gateway
