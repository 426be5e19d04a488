// Package decl parses single field declarations of the form "<type> <name>;"
// into sized field descriptors.
//
// A type token is a base kind (float, double, uint, int, bool) optionally
// followed by a row count digit and an "x<cols>" suffix, e.g. "float",
// "float3", "float3x3", "intx2". The size of a field is rows*cols atoms,
// where an atom is one 4-byte unit. Both counts default to 1.
//
// Parsing never fails: malformed input yields a Field with Valid=false, and
// callers use Valid as the discriminator.
package decl
