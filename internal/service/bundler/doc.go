// Package bundler implements the release-bundling pipeline.
//
// A run classifies the menu-injector archive, extracts the firmware payload
// into a staging tree, grafts the prebuilt application distribution and the
// contributed menu fragments into the add-ons subtree, resolves the release
// version and assembles two artifacts: the manual add-ons package and the
// firmware-ready bundle the device recovery applies on reboot. The staging
// tree is removed on every exit path.
package bundler
