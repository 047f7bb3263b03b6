// Package sentinelhub is a small client for the Sentinel Hub APIs used by
// sentinelfetch: the OAuth token endpoint and the Process API.
//
// TokenProvider performs the client credentials grant once per call and
// reports any failure as *errors.AuthError. Client posts ProcessRequest
// bodies built by NewProcessRequest and returns the raw response; only a
// missing response is an error.
package sentinelhub
