// Package auth provides authentication and authorisation for Clear Gauge Core.
//
// It implements a 2-tier role model (viewer → admin) with:
//   - Admin key exchange: the configured key, compared in constant time,
//     buys a short-lived JWT rather than authenticating every request
//   - Stateless HS256 bearer tokens validated by signature only (no DB hit)
//   - Read-only viewer tokens for dashboards and wall displays
//
// There are no user accounts: a single shared admin key is the only
// long-lived credential, and everything else flows from the role claim
// inside the token. All functions are pure and safe for concurrent use.
package auth
