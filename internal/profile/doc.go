// Package profile defines the domain profiles that drive a run.
//
// A profile names the feeds to visit in order, the keywords that make a
// listing relevant, the venue placeholder, the ranking policy and an
// optional category score table. The sports profile also carries the
// regional sport focus used by catalog feeds and the local highlights shown
// next to each listing. Profiles are loaded from YAML; the defaults are
// embedded in the binary and can be replaced with a file.
package profile
