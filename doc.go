// Package auth provides the identity and access control layer for the
// platform: password hashing, JWT session tokens, password reset flows,
// subscription aware authorization guards, and payment signature checks.
//
// Sessions:
//   - TokenService signs and validates HS256 JWTs carrying the account id,
//     email, role, and subscription status. Tokens are stateless; expiry is
//     the only revocation mechanism.
//
// Authorization:
//   - Guards compose into a chain that checks authentication, role
//     membership, and subscription standing in order. Role comes from the
//     token, subscription status is re-read from the store on every check so
//     a canceled subscription locks out paid content without waiting for
//     token expiry. Admins bypass the subscription gate.
//
// Password reset:
//   - Reset tokens are random secrets whose SHA-256 digest is stored.
//     Consumption is a single conditional update so a token can only be
//     redeemed once, and every failure mode reports the same invalid token
//     error.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the
//     command handlers, and the subscription state machine to describe
//     login, registration, reset, and payment events. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package auth
