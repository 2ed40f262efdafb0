// Package slides talks to the hosted presentation service over HTTP: it
// reads presentations, submits edit batches, copies and deletes files,
// and exports single pages as PNG images.
//
// All calls carry an OAuth2 bearer token from TokenSource. Page exports
// are rate limited and guarded by a circuit breaker, so a failing export
// endpoint fails the remaining slides fast instead of timing out on each.
package slides
