// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers write every response through these helpers so that JSON
// formatting, the error envelope and error-kind to status mapping stay
// identical across the admin surfaces.
package httputil
