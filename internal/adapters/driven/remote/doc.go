// Package remote provides the HTTP client for the code analysis service.
//
// The client implements the bundle, analysis and filters ports. Requests are
// JSON encoded, authenticated with a session token and throttled client side.
// Every failed exchange is reported as a *domain.ProtocolError.
//
// File content travels as a JSON string, so files that are not valid UTF-8
// are never uploaded and stay missing from their bundle.
package remote
