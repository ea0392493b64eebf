// Package ws streams fleet snapshots to dashboard clients over WebSocket.
//
// The hub is mounted at /ws/stream. Each client gets the current snapshot on
// connect, a "snapshot" message on every broadcast tick, and a "dataset"
// message as soon as a regenerated dataset is installed in the store:
//
//	{
//	  "event": "snapshot" | "dataset",
//	  "data":  { same schema as GET /api/v1/snapshot }
//	}
//
// Clients that fall sendBufSize messages behind are disconnected.
package ws
