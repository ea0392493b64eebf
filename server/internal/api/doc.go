// Package api implements the HTTP REST API for the sentinel server.
//
// New(store, alerts) returns an http.Handler (a gorilla/mux router) serving:
//
//	GET /api/v1/health                       fleet tier counts and overall state
//	GET /api/v1/machines                     latest reading and tier per machine
//	GET /api/v1/machines/{id}                latest, channel stats, assessment; 404 if unknown
//	GET /api/v1/machines/{id}/history        readings by ascending hour, ?from=&to= window
//	GET /api/v1/readings                     the whole dataset as a flat table
//	GET /api/v1/alerts                       firing and recently resolved alerts
//	GET /api/v1/snapshot                     summary + machines + params + generated_at
//	GET /metrics                             Prometheus text exposition of latest readings
//
// All JSON endpoints respond with Content-Type: application/json, return 405
// for non-GET methods and 503 until a dataset has been generated. JSON types
// live in types.go; the exposition encoder in metrics.go.
package api
