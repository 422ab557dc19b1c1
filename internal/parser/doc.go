// Package parser splits plaintext verse corpora into verse records.
// A verse ends on a line carrying a trailing "// <prefix>_<chapter>.<verse>"
// marker; everything before that line back to the previous verse belongs to it.
// Front matter is skipped up to a start marker line (default "# Text").
package parser
