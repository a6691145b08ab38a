package scaffold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/stackgen-labs/stackgen/internal/installer"
)

// Phase is an ordered stage within a branch.
type Phase string

// Phases, in execution order.
const (
	PhaseDirectories Phase = "directories"
	PhaseFiles       Phase = "files"
	PhasePatch       Phase = "patch"
	PhaseInstall     Phase = "install"
	PhaseCompleted   Phase = "completed"
)

// Installer populates dependencies in a materialized tree.
type Installer interface {
	Install(ctx context.Context, dir string) installer.Outcome
}

// Branch is one independent structure-building flow.
type Branch struct {
	Spec    Spec
	Patches []PatchRule
	// Install requests a dependency install once the tree is written.
	Install bool
}

// Engine runs branches against a filesystem.
type Engine struct {
	Fs afero.Fs
	// Installer is used for branches with Install set. Nil skips installs.
	Installer Installer
	// InstallTimeout bounds each install invocation. Zero means no bound.
	InstallTimeout time.Duration
	// Parallel runs branches concurrently. Branches must use disjoint roots.
	Parallel bool
}

// NewEngine returns an Engine on fsys with no installer.
func NewEngine(fsys afero.Fs) *Engine {
	return &Engine{Fs: fsys}
}

// Run executes every branch and returns their reports in input order. A
// failing branch never stops its siblings.
func (e *Engine) Run(ctx context.Context, branches []Branch) *Report {
	report := &Report{Branches: make([]BranchReport, len(branches))}

	if !e.Parallel || len(branches) < 2 {
		for i, b := range branches {
			report.Branches[i] = e.RunBranch(ctx, b)
		}
		return report
	}

	var g errgroup.Group
	for i, b := range branches {
		i, b := i, b
		g.Go(func() error {
			report.Branches[i] = e.RunBranch(ctx, b)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// RunBranch drives one branch through directories, files, patches and
// install.
func (e *Engine) RunBranch(ctx context.Context, b Branch) BranchReport {
	spec := b.Spec
	log := zerolog.Ctx(ctx).With().Str("branch", spec.Name).Logger()
	fsys := e.fs()

	r := BranchReport{Branch: spec.Name, Root: spec.Root, Phase: PhaseDirectories}
	fail := func(phase Phase, err error) BranchReport {
		r.Phase = phase
		r.Status = StatusFailed
		r.Err = withBranch(err, spec.Name)
		log.Error().Err(r.Err).Str("phase", string(phase)).Msg("branch failed")
		return r
	}

	if err := spec.Validate(); err != nil {
		return fail(PhaseDirectories, err)
	}

	created, err := EnsureDirs(fsys, spec.Root, spec.Directories, &log)
	r.Created = created
	if err != nil {
		return fail(PhaseDirectories, err)
	}
	log.Info().Str("phase", string(PhaseDirectories)).Int("created", len(created)).Msg("phase complete")

	r.Phase = PhaseFiles
	for _, f := range spec.SortedFiles() {
		p, err := Compose(spec.Root, f.Path)
		if err != nil {
			return fail(PhaseFiles, newError(KindFileWrite, f.Path, err, "composing file path"))
		}
		if err := WriteFile(fsys, p, f.Content); err != nil {
			return fail(PhaseFiles, err)
		}
		r.Written = append(r.Written, f.Path)
		log.Debug().Str("path", p).Int("bytes", len(f.Content)).Msg("wrote file")
	}
	log.Info().Str("phase", string(PhaseFiles)).Int("written", len(r.Written)).Msg("phase complete")

	if len(b.Patches) > 0 {
		r.Phase = PhasePatch
		for _, rule := range b.Patches {
			changed, err := ApplyPatch(fsys, spec.Root, rule)
			if err != nil {
				err = withBranch(err, spec.Name)
				r.Warnings = append(r.Warnings, err)
				log.Warn().Err(err).Str("phase", string(PhasePatch)).Msg("patch phase aborted")
				break
			}
			if changed {
				r.Patched = append(r.Patched, rule.Target)
				log.Debug().Str("rule", rule.String()).Msg("patched")
			} else {
				log.Debug().Str("rule", rule.String()).Msg("patch already applied")
			}
		}
	}

	if b.Install && e.Installer != nil {
		r.Phase = PhaseInstall
		out := e.install(ctx, spec.Root)
		r.Install = &out
		if err := installError(out); err != nil {
			err = withBranch(err, spec.Name)
			r.Warnings = append(r.Warnings, err)
			log.Warn().Err(err).Str("phase", string(PhaseInstall)).Msg("dependency install failed")
		} else {
			log.Info().Str("phase", string(PhaseInstall)).Dur("took", out.Duration).Msg("dependencies installed")
		}
	}

	r.Phase = PhaseCompleted
	r.Status = StatusCompleted
	return r
}

func (e *Engine) install(ctx context.Context, dir string) installer.Outcome {
	if e.InstallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.InstallTimeout)
		defer cancel()
	}
	return e.Installer.Install(ctx, dir)
}

func (e *Engine) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

// installError converts a non-successful outcome into an *Error.
func installError(out installer.Outcome) error {
	switch out.Status {
	case installer.StatusSuccess:
		return nil
	case installer.StatusProcessFailed:
		return newError(KindInstallProcess, out.Request.Dir, nil, "%s exited with status %d", out.Request.Command, out.ExitCode)
	default:
		return newError(KindInstallInvocation, out.Request.Dir, out.Reason, "running %s", out.Request.Command)
	}
}

// withBranch records the branch name on engine errors that lack one.
func withBranch(err error, branch string) error {
	var se *Error
	if errors.As(err, &se) {
		if se.Branch == "" {
			se.Branch = branch
		}
		return err
	}
	return fmt.Errorf("%s: %w", branch, err)
}
