// Package registry persists the status snapshot of the last completed run:
// for every slide id, the content hash and number it had.
//
// A registry is loaded at the start of a run and replaced wholesale at the
// end. Absent ids mean "unknown, must fetch". Two backends are provided:
//
//   - FileStore keeps a YAML file (status.yaml) with one mapping per slide
//     id, the format the store directory has always used.
//   - SQLiteStore keeps a single table in status.db, for store directories
//     that are shared with other tooling reading SQL.
//
// Both round-trip exactly: Load after Save returns an equal Registry.
package registry
