// Package manifest parses and validates the documents stackgen reads and
// writes: npm package manifests (package.json) and the template-set
// descriptor (sets.yaml). Both are checked against JSON schemas embedded
// in the schema directory; package manifests additionally get semver
// checks on their version and dependency ranges.
package manifest
