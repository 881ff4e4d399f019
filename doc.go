// Package auth implements the authentication and authorization core of a
// school portal that serves two classes of principals: administrators and
// general users (students, parents, teachers).
//
// Identity proofs:
//   - Administrators, parents, and teachers authenticate with an email and
//     password. Students authenticate with their admission number and a short
//     numeric PIN (4-8 digits). Both secrets flow through the same bcrypt
//     hashing path; PINs additionally pass format validation.
//
// Credential carriers:
//   - Stateless bearer tokens (HS256 JWT, 7 day expiry) for API clients, and
//     redis-backed server-side sessions (opaque cookie id, absolute 24h TTL)
//     for browser flows. Sessions carry a snapshot of the principal, never a
//     live record.
//
// Resolution and gating:
//   - Resolver turns a presented credential into a Principal through an
//     ordered sequence of attempts: admins are looked up before users, the
//     first hit wins, and every failure is a typed rejection. RoleGate then
//     compares the resolved principal against a route's RoleSet.
//
// Known limitations, carried deliberately from the system this replaces:
// bearer tokens cannot be revoked before expiry, and PIN attempts are tracked
// but not rate limited.
package auth
