package installer

import (
	"context"
	"fmt"
	"time"
)

// Installer populates dependencies for the project rooted at dir.
type Installer interface {
	Install(ctx context.Context, dir string) Outcome
}

// Status classifies an install attempt.
type Status string

const (
	// StatusSuccess means the package manager exited 0.
	StatusSuccess Status = "success"
	// StatusProcessFailed means the package manager ran and exited non-zero.
	StatusProcessFailed Status = "process_failed"
	// StatusInvocationFailed means the package manager could not be started
	// or was cut off by the context deadline.
	StatusInvocationFailed Status = "invocation_failed"
)

// Request describes one external dependency-install invocation.
type Request struct {
	Dir     string
	Command string
	Args    []string
}

// Outcome is the observed result of running a Request.
type Outcome struct {
	Request  Request
	Status   Status
	ExitCode int   // meaningful for StatusProcessFailed
	Reason   error // set for StatusInvocationFailed
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Succeeded reports whether the install completed with exit status 0.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSuccess:
		return fmt.Sprintf("%s succeeded in %s", o.Request.Command, o.Duration.Round(time.Millisecond))
	case StatusProcessFailed:
		return fmt.Sprintf("%s exited with status %d", o.Request.Command, o.ExitCode)
	default:
		return fmt.Sprintf("%s could not be run: %v", o.Request.Command, o.Reason)
	}
}

// Supported package managers.
const (
	ManagerNPM  = "npm"
	ManagerYarn = "yarn"
	ManagerPNPM = "pnpm"
)

// Managers returns the supported package-manager names.
func Managers() []string {
	return []string{ManagerNPM, ManagerYarn, ManagerPNPM}
}

// Dispatch returns the Installer for the given package-manager name. Unknown
// names yield an Installer whose outcome is always StatusInvocationFailed.
func Dispatch(manager string) Installer {
	switch manager {
	case ManagerNPM, ManagerYarn, ManagerPNPM:
		return &CommandInstaller{Manager: manager}
	default:
		return &unknownManager{name: manager}
	}
}

// unknownManager is returned when the package-manager name is not recognized.
type unknownManager struct {
	name string
}

func (u *unknownManager) Install(_ context.Context, dir string) Outcome {
	return Outcome{
		Request: Request{Dir: dir, Command: u.name},
		Status:  StatusInvocationFailed,
		Reason:  fmt.Errorf("unknown package manager %q: supported managers are %q, %q and %q", u.name, ManagerNPM, ManagerYarn, ManagerPNPM),
	}
}
