// Package pipeline composes stages into a tree and drives their lifecycle.
//
// A Node is either a Module, a leaf that delegates its lifecycle to a Stage,
// or a Pipeline, an interior node that owns an ordered list of child nodes
// and a working block (the pipe block) they are all bound to. Both go through
// the same state machine:
//
//	Uninitialized -> Configured -> Bound -> SetUp -> Executing ... -> CleanedUp
//
// Construction configures the node from a config.Block, loads its parameters
// and binds it to a DataBlock. Setup runs once, Execute any number of times,
// Cleanup is terminal.
//
// Stages are resolved by name from a set of registered libraries (see
// FromLibrary), so a whole pipeline can be assembled from a configuration
// file without compiling stage-specific code into the engine.
package pipeline
