// Package cache keeps rendered slide images on disk and reconciles them
// with a freshly numbered deck.
//
// A store directory has two tiers:
//
//	<dir>/current   artifacts from earlier runs, renamed as numbers shift
//	<dir>/new       artifacts fetched by the latest runs
//
// Every artifact is named <number>[_<label>].png with the number zero
// padded to ten digits. For each slide, Plan compares the fingerprint with
// the registry of the previous run. Unchanged slides keep their artifact in
// whichever tier holds it, renamed if their number moved; changed and new
// slides are fetched into the new tier. Evict then removes artifacts in
// current whose number no longer belongs to any slide, and Promote drops
// such artifacts from new before moving the rest into current. Files that
// do not follow the naming scheme are never touched.
package cache
