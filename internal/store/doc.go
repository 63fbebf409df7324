// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The Store interface covers three collaborator concerns that sit beside
// the process-backed tool sessions:
//
//   - ServerRecord: registry metadata describing uploaded tool servers
//     (title, description, status, tags, visibility, usage counter)
//   - Like: per-user likes of registry entries
//   - ActivityEntry: an append-mostly activity log of registry mutations
//
// SQLiteStore implements the interface in a single struct. None of this
// state is shared with tool server sessions; the gateway passes the
// store explicitly to the HTTP layer.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created automatically on startup. Use ":memory:" for
// tests.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateLike: a user liked the same target twice
//
// All methods accept context.Context for cancellation support.
package store
