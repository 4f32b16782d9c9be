// Package event turns raw listing fragments into clean, ranked event records.
//
// Feeds hand the package an ordered slice of Attempts: unparsed name, date and
// venue text plus the source tag, URL and city they came from. Normalize runs
// every attempt through the date normalizer and venue cleaner, drops repeated
// names (first seen wins), keeps only records with a usable date and venue,
// scores them against a category table and sorts them. The package performs
// no I/O and keeps no state between calls.
//
// Records carry a deterministic SHA1-based ID derived from the lower-cased
// name, so snapshots from different runs can be diffed.
package event
