// Package scaffold materializes a project skeleton onto a filesystem.
//
// A Spec lists the directories and files of one tree (for example the
// "client" or "backend" half of a project). The Engine runs each Branch
// through its phases in order (directories, files, config patches, dependency
// install) and records the result in a Report. Directory creation and file
// writes are idempotent, so running the same branches twice against the same
// root converges on the same tree.
//
// Directory and file failures abort only the branch they occur in. Patch
// failures abort only the patch phase. Install failures never fail a branch.
package scaffold
