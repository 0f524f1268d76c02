// Package broadcast implements the host's chat-delivery capability.
//
// A Sink receives fully formatted chat lines (native color escapes included)
// and delivers them to every connected player. Two drivers exist:
//
//   - console: renders the line with ANSI colors on stdout, for running the
//     host standalone or next to a dedicated server console
//   - redis:   PUBLISHes the raw line on a channel; a game-side bridge
//     subscribes and relays it into the server's chat
//
// Delivery is fire-and-forget: failures are logged and the line is dropped.
package broadcast
