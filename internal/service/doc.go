// Package service contains the application use cases: permission-gated task
// access, collaboration management, owner-scoped categories, reports, and
// user registration and authentication.
//
// Services receive their dependencies through constructor injection and
// depend only on the repository interfaces in internal/store, never on a
// concrete database. Operations that write more than one row run through a
// store.Transactor.
//
// Error handling:
//   - Expected failures are one of ErrNotFound, ErrForbidden, ErrConflict or
//     ErrInvalid, usually through a more specific sentinel that wraps it
//   - Domain validation errors surface as ErrInvalid
//   - Anything unexpected is wrapped in *ServiceError
//
// Task permissions are resolved by PermissionResolver in a fixed order:
// creator, then assignee, then an explicit collaboration row.
package service
