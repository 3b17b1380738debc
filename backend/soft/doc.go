// Package soft is a pure Go software driver for the graphics package.
//
// Textures are byte buffers, shader compilation and link reflection are
// simulated against the same block layout rules the GPU drivers use, and
// shared textures go through an in-process broker with keyed mutexes. The
// driver registers itself as "soft" and is the default when no GPU backend
// is selected. It also serves as the reference model the test suite runs
// against.
package soft
