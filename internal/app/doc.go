// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App loads configuration files into a config.Block, registers the
// compiled-in stage libraries, builds the root pipeline named by the
// configuration and evaluates it: once at the initial parameter values, once
// more with any explicit overrides, and once per requested sample drawn from
// the parameters' reference distributions.
package app
