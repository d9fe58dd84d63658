// Package store keeps the sessions of the sandbox pricing API.
//
// This package is internal to apiwrapper and backs the mock server used by
// the example programs and the CLI tests. Sessions are created pending and
// complete after a configured number of polls. Status changes are published
// to subscribers, which the mock server uses for its log output.
//
// The main components are:
//
//   - [Store]: Interface defining session storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Session]: The state of one pricing session
package store
