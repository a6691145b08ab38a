package scaffold

import (
	"fmt"
	"io"
	"strings"

	"github.com/stackgen-labs/stackgen/internal/installer"
)

// Status is a branch's terminal state.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// BranchReport records how far a branch got and what it did.
type BranchReport struct {
	Branch string
	Root   string
	// Phase is the phase the branch failed in, or PhaseCompleted.
	Phase  Phase
	Status Status
	// Err is the fatal error for a failed branch.
	Err error
	// Warnings holds non-fatal patch and install errors.
	Warnings []error

	Created []string // directories created, relative to Root
	Written []string // files written, relative to Root
	Patched []string // files changed by patch rules
	Install *installer.Outcome
}

// Failed reports whether the branch ended in StatusFailed.
func (b BranchReport) Failed() bool {
	return b.Status == StatusFailed
}

// Report collects the per-branch results of one Engine run.
type Report struct {
	Branches []BranchReport
}

// Failed reports whether any branch failed.
func (r *Report) Failed() bool {
	for _, b := range r.Branches {
		if b.Failed() {
			return true
		}
	}
	return false
}

// FailedBranches returns the names of failed branches.
func (r *Report) FailedBranches() []string {
	var names []string
	for _, b := range r.Branches {
		if b.Failed() {
			names = append(names, b.Branch)
		}
	}
	return names
}

// Branch returns the report for the named branch.
func (r *Report) Branch(name string) (BranchReport, bool) {
	for _, b := range r.Branches {
		if b.Branch == name {
			return b, true
		}
	}
	return BranchReport{}, false
}

// Print writes a human-readable summary, one block per branch.
func (r *Report) Print(w io.Writer) {
	for _, b := range r.Branches {
		if b.Failed() {
			fmt.Fprintf(w, "%s: failed in %s phase\n", b.Branch, b.Phase)
		} else {
			fmt.Fprintf(w, "%s: %s\n", b.Branch, b.Status)
		}

		fmt.Fprintf(w, "  [ OK ] %d directories created, %d files written\n", len(b.Created), len(b.Written))
		if len(b.Patched) > 0 {
			fmt.Fprintf(w, "  [ OK ] patched %s\n", strings.Join(b.Patched, ", "))
		}
		if b.Install != nil && b.Install.Succeeded() {
			fmt.Fprintf(w, "  [ OK ] %s\n", b.Install)
		}
		for _, warn := range b.Warnings {
			fmt.Fprintf(w, "  [WARN] %v\n", warn)
		}
		if b.Err != nil {
			fmt.Fprintf(w, "  [FAIL] %v\n", b.Err)
		}
	}
}
