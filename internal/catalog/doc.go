// Package catalog provides the template sets stackgen materializes.
//
// Sets are described by templates/sets.yaml and their file contents live
// under templates/<set>/<tree>/, all embedded in the binary. A set may
// extend another; Load resolves the chain into a flat Set whose trees carry
// every directory, file, env entry and patch the scaffold needs.
package catalog
