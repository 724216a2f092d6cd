// Package auth provides a small authentication and authorization core: bcrypt
// credential verification, HS256 JWT issuance and validation, per-request
// session resolution, and an exact set-membership role gate, plus the HTTP
// controller and repositories that back the service.
//
// Roles:
//   - Users carry a single UserRole (admin, auditor, viewer). Authorization is
//     strict membership of an allowed-role list built once per route; there is
//     no numeric hierarchy, so admitting admins to an auditor route means
//     listing both roles.
//
// Credential failures:
//   - Unknown identifiers and wrong passwords both surface as
//     ErrMismatchedHashAndPassword so login responses cannot be used to probe
//     which accounts exist. Authorization failures are a separate category and
//     map to 403 rather than 401.
//
// Lifecycle hooks:
//   - LifecycleHooks fire after registration, password reset requests, and
//     completed resets. Defaults only log; deployments plug in mailers or audit
//     trails. Hook errors never fail the triggering operation.
package auth
