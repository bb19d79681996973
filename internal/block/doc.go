// Package block implements the shared state container that every stage of a
// pipeline reads from and writes to.
//
// A DataBlock stores values addressed by a (section, name) Key. Every access
// goes through a Mapping, a bidirectional alias table that lets a stage
// address shared state under its own local names. Sections carry an explicit
// copy policy: Owned sections are duplicated when a block is copied with
// DataCopy, Shared sections keep a single store referenced by every copy.
//
// A SectionBlock scopes reads and writes to a single section and is used for
// option lookups. Typed getters assert a coarse declared type (bool, int,
// float, string, or an Array of those with a given dimensionality) and fail
// with a WrongType error rather than coercing.
package block
