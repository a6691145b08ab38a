// Package installer runs a Node.js package manager (npm, yarn or pnpm) in a
// scaffolded tree and reports what happened as an Outcome value instead of
// an error, so callers decide whether a failed install matters. Dispatch
// selects the implementation from a package-manager name.
package installer
