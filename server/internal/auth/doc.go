// Package auth provides authentication middleware for the sentinel HTTP API.
//
// APIKey(mode, header, key) wraps an http.Handler and validates the API key
// carried in the named request header. When mode != "apikey" or key == "",
// every request passes through, which keeps local demos friction-free.
package auth
