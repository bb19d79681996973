// Package registry provides the central "glue" for the module system.
//
// The Registry maps the library names used in configuration (module_name, or
// the library of a module_file manifest) to the compiled Go factories and
// lifecycle functions that implement them. A fresh registry always holds the
// "core" library, whose "Pipeline" class builds nested pipelines.
//
// During application startup, the registry is populated by every compiled-in
// module and then validated, optionally against a directory of manifests, so
// that configuration and Go code are known to be in sync before anything
// runs.
package registry
