// Package session builds HTTP clients with automatic retries for transient
// failures and the swanlab-sdk identity header attached to every request.
// Retry behavior is configured through the SWANLAB_RETRY_TOTAL and
// SWANLAB_RETRY_BACKOFF_FACTOR environment variables; malformed values fall
// back to safe defaults instead of failing session construction.
package session
