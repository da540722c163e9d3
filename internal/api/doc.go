// Package api is the HTTP client for the upstream audit logs API.
//
// It resolves log file locations for a time window and downloads the
// referenced files with bounded parallelism. All requests are bearer
// authenticated; a 401 triggers one token refresh and one retry of the
// failing request, after which the failure is terminal.
package api
