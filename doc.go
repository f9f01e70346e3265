// Package accounts implements the authentication and session core of a web
// application: user records with a pending/active/deleted lifecycle, password
// and OpenID login, confirmation token issuance, and access-key based
// authorization.
//
// Credential storage:
//   - Users is a Bun-backed repository with a read-through record cache.
//     Every mutator invalidates the cached copy of the affected record, and
//     email uniqueness is enforced against non-deleted rows before any
//     insert or profile update.
//
// Authentication:
//   - Authenticator validates a password or an OpenID identity URL, checks
//     account status, and installs the identity plus its access keys into a
//     per-request AccessContext as a single critical section. The full user
//     record is snapshotted into the server-side session store. An unknown
//     OpenID identity is a nil result rather than an error so callers can
//     route into a registration flow.
//
// Lifecycle:
//   - UserStateMachine centralizes the pending -> active and * -> deleted
//     transition graph. Activation clears the confirmation token exactly
//     once; deletion is a soft delete that retains the row.
//
// Request-scoped state travels on the context.Context, never in package
// globals: see WithAccessContext and AccessFromContext.
package accounts
