// Package domain contains the core business entities of the task manager:
// users, tasks, categories and the per-task collaboration rows that grant
// other users access. It also owns the pure role-resolution rule that every
// task operation is gated on, independent of storage or transport.
package domain
