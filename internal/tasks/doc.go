// Package tasks implements task creation, listing and mutation for
// authenticated users.
//
// A task has exactly one owner and only that owner may change or delete it.
// Every mutation opens a store transaction, runs OwnershipGuard inside it and
// writes through the same transaction, so a concurrent ownership transfer
// cannot slip between the check and the write.
//
// Check order for edits:
//
//	EditTitle:  new title free?  -> guard -> update
//	EditOwner:  guard -> target user exists? -> update
//	others:     guard -> update
//
// EditTitle reports a taken title even to non-owners. Unknown task titles
// report ResourceNotFound while tasks owned by someone else report
// PermissionDenied.
package tasks
