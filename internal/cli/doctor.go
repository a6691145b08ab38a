package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/stackgen-labs/stackgen/internal/config"
	"github.com/stackgen-labs/stackgen/internal/installer"
	"github.com/stackgen-labs/stackgen/internal/manifest"
)

var checkManifest string

func init() {
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a package.json at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment stackgen needs",
	Long: `Report Node.js and package-manager availability and versions, and the
config file in use. Node.js must satisfy ` + installer.MinNodeVersion + `.

With --check-manifest, validate a package.json instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if checkManifest != "" {
			return runManifestCheck(out, checkManifest)
		}

		opts, err := config.ResolveOptions()
		if err != nil {
			return err
		}

		failed := runRuntimeCheck(cmd.Context(), out, opts.PackageManager)
		runConfigCheck(out)

		if failed > 0 {
			return fmt.Errorf("%d required check(s) failed", failed)
		}
		return nil
	},
}

// runRuntimeCheck reports node and every package manager. Node and the
// configured package manager are required; it returns how many of those
// failed.
func runRuntimeCheck(ctx context.Context, w io.Writer, pm string) int {
	fmt.Fprintln(w, "Runtime check:")
	failed := 0
	if !checkBinary(ctx, w, "node", installer.MinNodeVersion, true) {
		failed++
	}
	for _, m := range installer.Managers() {
		if !checkBinary(ctx, w, m, "", m == pm) {
			failed++
		}
	}
	return failed
}

// checkBinary prints one status line for name. It returns false only when
// the binary is required and missing, unversionable or too old.
func checkBinary(ctx context.Context, w io.Writer, name, constraint string, required bool) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		if required {
			fmt.Fprintf(w, "  [FAIL] %s not found\n", name)
			return false
		}
		fmt.Fprintf(w, "  [SKIP] %s not found\n", name)
		return true
	}

	v, err := installer.Version(ctx, path)
	if err != nil {
		fmt.Fprintf(w, "  [WARN] %s found at %s but its version is unknown: %v\n", name, path, err)
		return !required
	}

	if constraint != "" {
		ok, err := installer.Satisfies(v, constraint)
		if err != nil || !ok {
			fmt.Fprintf(w, "  [FAIL] %s %s at %s does not satisfy %s\n", name, v, path, constraint)
			return false
		}
	}
	fmt.Fprintf(w, "  [ OK ] %s %s at %s\n", name, v, path)
	return true
}

func runConfigCheck(w io.Writer) {
	fmt.Fprintln(w, "Config check:")
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  [SKIP] %s not present, using defaults\n", path)
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", path)
}

func runManifestCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Manifest validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	if result.Valid {
		pkg, err := manifest.ParseFile(path)
		if err != nil || pkg.Version == "" {
			fmt.Fprintf(w, "  [ OK ] Valid package manifest\n")
			return nil
		}
		fmt.Fprintf(w, "  [ OK ] Valid package manifest: %s (v%s)\n", pkg.Name, pkg.Version)
		return nil
	}

	fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "    - %s\n", issue)
	}
	return fmt.Errorf("manifest %s has %d validation issue(s)", path, len(result.Issues))
}
