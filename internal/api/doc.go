// Package api provides HTTP clients for the chat backend.
//
// The backend is split in two services:
//   - Chat aggregate (commands): POST /create-chat, POST /send-chat-message
//   - Chat projection (queries): GET /chats?user_id=, GET /chats/{id}
//
// One Client talks to one base URL; construct one per service.
package api
