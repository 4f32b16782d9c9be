// Package scraper turns event feeds into raw extraction attempts.
//
// Each feed kind has its own parser: JSON-LD Event objects, listing tables,
// date-led text blocks and meetup group pages are read with goquery, while
// catalog feeds are generated from profile data without touching the
// network. The Runner visits the feeds of a profile in declared order,
// pausing between network fetches, and reports one result per feed. A
// failing feed never stops the run.
package scraper
