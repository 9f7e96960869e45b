// Package middleware provides HTTP middleware for the host binary:
// W3C Extended Log Format request logging and Prometheus request
// metrics.
package middleware
