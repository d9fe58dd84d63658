// Package transport provides the HTTP transport used by apiwrapper clients.
//
// This package is internal to apiwrapper. It performs exactly one network
// call per [Client.Fetch], applying the per-request timeout, query
// parameters, headers and TLS verification switch, and returns the status,
// headers, body and final URL of the response.
//
// Users of the apiwrapper library should not need to interact with this
// package directly. A custom transport can be plugged in through
// apiwrapper.WithTransport instead.
package transport
