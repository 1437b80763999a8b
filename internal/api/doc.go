// Package api provides the Questrade REST API client.
//
// Every endpoint goes through one request primitive which reads the current
// credential snapshot at call time (api_server + "v1", Authorization header),
// so a renewal is observed by the very next call. Failures are uniform:
//   - *HTTPError: any status other than 200, body verbatim
//   - *DecodeError: body is not JSON or fails required-field validation
//
// Endpoints: accounts, time, markets, symbols/search, symbols, markets/quotes,
// markets/candles/{id}, accounts/{id}/balances, accounts/{id}/positions.
package api
