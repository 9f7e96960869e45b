// Package handlers implements the HTTP surface of the host binary:
// thumbnail retrieval, session control (reset, pause, resume), crop
// editor configuration, and health endpoints.
package handlers
