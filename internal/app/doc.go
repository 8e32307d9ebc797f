// Package app holds the outbound side of the bot: an in-process outbox that
// implements the chat transport by publishing events to stream subscribers.
//
// Responsibilities:
//   - Allocate message references for everything the bot sends.
//   - Keep a bounded replay history so a reconnecting stream can resume.
//   - Inline file content at send time, because the workflow deletes its
//     temporary files right after delivery.
//
// Non-responsibilities:
//   - HTTP/SSE framing, which lives in the rpc adapter.
package app
