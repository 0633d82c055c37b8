// Package auth provides multi-tenant session management (dual-context JWT
// issuance, stateful session repositories, HTTP guards) for applications
// that keep a durable record per outstanding refresh token.
//
// Token contexts:
//   - Access tokens are RS256 signed and verified against either a local
//     public key or a remote JWK Set. They are short lived and carry the
//     subject, role, and optional tenant scope.
//   - Refresh tokens are HS256 signed against a shared secret and carry the
//     id of their session record. Verification alone is not enough to accept
//     one: the record must still exist, and deleting it is the only
//     revocation mechanism.
//
// Session lifecycle:
//   - SessionManager drives login, refresh rotation, and logout. Rotation
//     creates and signs the replacement session before deleting the consumed
//     one, so an interrupted rotation never strands the client without a
//     valid token.
//   - HTTPAuth turns the codec plus the session store into router
//     middlewares. The refresh guard consults the revocation list on every
//     request; the role guard layers on top of the access guard and fails
//     with a distinct denial, never an authentication error.
package auth
