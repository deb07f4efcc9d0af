// Package store reads and writes trajectory files.
//
// The trajectory format has one line per sample with the six state
// components px py pz vx vy vz separated by tabs, optionally preceded by
// the sample time. There is no header. Paths ending in .zst are
// zstd-compressed.
//
// WriteFile stages the output in a temporary file next to the destination
// and renames it into place, so a failed write never leaves a partial
// file behind.
package store
