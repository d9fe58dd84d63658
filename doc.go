// Package apiwrapper provides a thin client substrate for REST-style APIs
// that answer in JSON or XML, occasionally return empty or invalid bodies,
// rate-limit with HTTP 429, and expose long-running work through a
// "create a session, then poll a status URL" idiom.
//
// # Quick Start
//
//	client, _ := apiwrapper.New(apiwrapper.WithResponseFormat(apiwrapper.FormatJSON))
//	defer client.Close()
//
//	result, err := client.Dispatch(ctx, "https://api.example.com/markets",
//	    apiwrapper.WithParam("apiKey", key),
//	    apiwrapper.WithErrorMode("graceful"),
//	)
//
// # Error Modes
//
// Every dispatch runs under one of three modes:
//
//   - [Strict]: every failure is returned.
//   - [Graceful]: empty bodies and HTTP 429 are tolerated so that a poller
//     can try again; other failures are returned.
//   - [Ignore]: failures are logged and a best-effort result is returned.
//
// Connectivity failures, invalid configuration and callback parameter
// mismatches are returned in every mode.
//
// # Polling
//
// [Client.Poll] repeats GET requests until a [Predicate] is satisfied:
//
//	result, err := client.Poll(ctx, pollURL,
//	    apiwrapper.WithInitialDelay(2*time.Second),
//	    apiwrapper.WithDelay(time.Second),
//	    apiwrapper.WithMaxTries(20),
//	)
//
// The default predicate, [DefaultCompletion], reads the status field of
// the payload. [StatusIn], [JSONFieldIn], [XMLPathIn], [HTTPStatusIn] and
// [AnyOf] build others.
//
// # Services
//
// A [Service] binds a client to one API: base URL, fixed parameters such
// as an API key, and session creation. [Service.Search] creates a session
// and polls it to completion.
//
// # Architecture
//
//   - internal/transport: net/http transport with per-request timeout and TLS switch
//   - internal/xmltree: element tree used for XML payloads
//   - internal/store, internal/server: sandbox pricing API used by the examples
//   - config: YAML profiles for the command-line tool
package apiwrapper
