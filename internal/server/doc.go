// Package server provides a sandbox pricing API for the example programs
// and end-to-end tests.
//
// The sandbox mimics a flight-pricing service with a create-then-poll
// session workflow:
//
//   - POST /apiservices/pricing/v1.0: Creates a session from form fields and
//     answers 201 with the poll URL in the Location header, or 400 with
//     validation errors
//   - GET /apiservices/pricing/v1.0/{key}: Returns the session; its Status is
//     UpdatesPending until enough polls were made, then UpdatesComplete
//   - GET /apiservices/reference/v1.0/countries/{locale}: Static reference data
//
// Responses are XML when the Accept header asks for it and JSON otherwise.
// Polls can be configured to fail at random with 429 or an empty body so
// that clients exercise their error modes. The server supports graceful
// shutdown via context cancellation, with a 5-second timeout for in-flight
// requests.
package server
