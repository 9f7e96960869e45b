// Package metrics defines the Prometheus collectors for the picker
// core and its HTTP host. All collectors are registered with the
// default registry via promauto at package load.
package metrics
