// Package sqlite stores the recording library in a SQLite database
// (modernc.org/sqlite) with embedded migrations.
package sqlite
