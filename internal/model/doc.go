// Package model defines the chat data types shared by the live connection,
// the backend API client and the gateway.
//
// All types mirror the JSON exchanged with the chat aggregate and chat
// projection services.
//
// Conventions:
//   - IDs are opaque strings minted by the backend
//   - sent_by holds the sender's hashed user id, not the display name
//   - Message lists are ordered newest first
package model
