// Package clients provides an HTTP client for the FinCrypt server API.
package clients
