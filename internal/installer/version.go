package installer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinNodeVersion is the oldest Node.js release the generated projects target.
const MinNodeVersion = ">=18.0.0"

// ParseVersion strips surrounding whitespace and a leading "v" and parses the
// result as a semantic version.
func ParseVersion(raw string) (*semver.Version, error) {
	s := strings.TrimSpace(raw)
	// Some tools print banners before the version; keep the last line.
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	s = strings.TrimPrefix(s, "v")
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", raw, err)
	}
	return v, nil
}

// Version runs `<bin> --version` and parses its output.
func Version(ctx context.Context, bin string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", bin, err)
	}
	return ParseVersion(string(out))
}

// Satisfies reports whether v matches the semver constraint expression.
func Satisfies(v *semver.Version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
