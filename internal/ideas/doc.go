// Package ideas persists idea records: a SQLite index for fast lookup plus
// the on-disk folder hierarchy holding each idea's audio, transcript,
// analysis, and metadata files.
//
// The Store exclusively owns the folder/version namespace. Creations,
// renames, and deletions against the same sanitized base name are serialized
// through per-name locks so concurrent submitters never receive the same
// folder, while work on unrelated names proceeds concurrently.
package ideas
