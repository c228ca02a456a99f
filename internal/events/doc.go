// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

/*
Package events provides real-time catalog change notifications over WebSocket.

This package broadcasts catalog mutations (book and user admission and
removal, checkouts, checkins, bulk-load completion) to connected frontend
clients. It uses the gorilla/websocket library with a hub-client
architecture for efficient fan-out.

Key Components:

  - Hub: Central broker that manages client connections and broadcasts
  - Client: A single WebSocket connection with read/write goroutines
  - Message: Typed envelope for the different event kinds

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from the WebSocket, answers pings
  - writePump: Writes queued messages, sends keepalive pings

Message Types:

  - book_added, book_removed: A book entered or left the catalog
  - user_added, user_removed: A user was registered or removed
  - checkout, checkin: A circulation event happened
  - load_completed: A bulk load finished (counts, duration)
  - stats_update: Catalog totals changed

Mutation and circulation broadcasts pass through a token-bucket
throttle so a bulk load or scripted churn cannot flood connected clients;
throttled messages are dropped and counted, never queued.

The hub is supervised: RunWithContext returns when its context is
canceled, after closing every client, so a supervisor can restart it
without leaking connections.
*/
package events
