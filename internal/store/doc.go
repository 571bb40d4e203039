// Package store provides persistent storage for taskgate using SQLite.
//
// # Architecture
//
// The package splits persistence into small interfaces:
//
//   - UserStore: registered accounts, looked up by ID, email or username
//   - RoleStore: role grants (USER, ADMIN) attached to users
//   - TaskStore: tasks keyed by their globally unique title
//
// Queries combines the three. Store adds WithTx, Ping and Close.
//
// SQLiteStore implements Store over database/sql. Two drivers are supported:
// modernc.org/sqlite ("sqlite", the default, pure Go) and
// github.com/mattn/go-sqlite3 ("sqlite3", cgo). The pool is limited to one
// connection so transactions run one at a time; unique indexes on
// users.email, users.username and tasks.title back this up.
//
// MockStore is an in-memory Store with the same semantics for tests in other
// packages.
//
// # Normalization
//
// Emails are trimmed, NFC-normalized and lower-cased. Usernames and task
// titles are trimmed and NFC-normalized. Every lookup applies the same
// folding as every insert.
//
// # Pagination
//
// Page.Offset is a page index, not a row count. Limit defaults to 20 and is
// capped at 100.
package store
