// Package websocket serves 2048 games over WebSocket.
//
// Every connection owns its own engine and game state. All moves for a
// connection are applied by its read loop, one at a time, so the state is
// never touched concurrently. Replies go through a buffered channel to a
// separate write loop that also sends keepalive pings.
//
// Message Protocol:
//
//   - Incoming: {"type": "new"} or {"type": "move", "direction": "left"}
//   - Outgoing: {"type": "state", "state": {...}, "changed": true, "gained": 4, "spawned": {...}}
//     or {"type": "error", "error": "..."}
//
// A game is dealt as soon as the connection opens. The player name is taken
// from the ?player= query parameter. When a game ends its result is handed
// to the configured ResultSaver once.
//
// Usage:
//
//	h := websocket.NewHandler(store, logger, engineOpts...)
//	http.Handle("/ws", h)
package websocket
