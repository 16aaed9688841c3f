// Package mocks provides hand-rolled test doubles for the store and service
// interfaces. Function-field mocks make per-test behavior explicit; the
// in-memory job store is a working implementation so scheduler tests
// exercise real claim/ack semantics without a database.
package mocks
