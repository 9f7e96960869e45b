// Package ledger tracks generated thumbnail files for sweeping.
//
// Thumbnail files used to accumulate in the cache directory forever:
// nothing tied them to a session, so nothing ever deleted them. The
// ledger gives each file a session tag and a creation time so a
// closing session can sweep its own files and startup can reclaim
// orphans left by crashed processes.
package ledger
