// Package pipeline runs one complete slider pass over a presentation.
//
// A run reads and numbers the original document, writes the numbers into
// its speaker notes, exports a disposable copy stripped of layout
// decoration, reconciles the local artifact store against the previous
// run's registry and saves the new registry.
//
// The remote services are reached through the small Source, Editor and
// Copier interfaces; the slides package implements all three, and
// testutil.FakeService stands in for them in tests.
package pipeline
