// Package cli implements the command-line interface for city-events.
//
// The cli package provides the Cobra-based root command. It loads the
// configuration and the domain profile, runs the profile's feeds for a city
// (or reads attempts from a file), normalizes and ranks the results, applies
// the user's filters, and writes text, JSON or iCalendar output. Each run is
// compared against the previous snapshot for the same profile and city so
// that --new-only can report just the records that appeared since.
package cli
