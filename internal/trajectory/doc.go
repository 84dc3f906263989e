// Package trajectory reads and writes recorded engine samples.
//
// The text format is the one consumed by downstream analysis: one row per
// sample and exactly three numeric columns, in the fixed order
//
//	position velocity time
//
// Consumers index column 0 as position, column 1 as velocity and column 2 as
// time, so the order must never change. No header row is written unless
// [TextOptions.Header] is set. The reader skips a leading header and accepts
// either whitespace or comma delimiters.
//
// Values are written with the shortest representation that parses back to
// the same float64, so a write/read round trip is exact. Non-finite values
// are written as NaN, +Inf and -Inf.
package trajectory
