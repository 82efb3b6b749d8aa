// Package config defines bundling settings used by the reader-bundler binary
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the application name, the locations of the prebuilt
// distribution and the contributed menu fragments, the output directory and
// the optional external build command.
package config
