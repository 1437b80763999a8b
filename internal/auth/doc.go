// Package auth manages the Questrade OAuth session.
//
// A Session owns the live Credential. Readers (the REST client, the health
// endpoint) take an immutable snapshot via Current; renewal stages a complete
// replacement and swaps it in with a single atomic store, so a reader never
// sees a half-updated credential.
//
// Renewal failures are classified:
//   - ErrServiceUnavailable: the auth server reported a maintenance window
//   - ErrInvalidRefreshToken: the refresh token was rejected and must be replaced out-of-band
//   - *RenewalError: anything else, body carried verbatim
//
// The Refresher renews the access token 100ms before it expires, indefinitely.
package auth
