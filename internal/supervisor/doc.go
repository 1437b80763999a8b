// Package supervisor owns the lifecycle of one Questrade session.
//
// Open loads the stored credential, obtains a valid access token (asking the
// prompt for a replacement refresh token when the stored one is missing or
// rejected) and checks that the API accepts it. Run then starts the token
// refresher and one poller per subscription in a single errgroup scope and
// persists the credential however that scope ends.
package supervisor
