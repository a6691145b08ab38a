package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/stackgen-labs/stackgen/internal/catalog"
	"github.com/stackgen-labs/stackgen/internal/config"
	"github.com/stackgen-labs/stackgen/internal/installer"
	"github.com/stackgen-labs/stackgen/internal/logging"
	"github.com/stackgen-labs/stackgen/internal/project"
	"github.com/stackgen-labs/stackgen/internal/scaffold"
)

// newShowTree prints the produced tree after the summary.
var newShowTree bool

func init() {
	f := newCmd.Flags()
	f.String("name", "", "Project name (prompted for when not given)")
	f.String("dir", config.DefaultDir, "Parent directory for the project")
	f.StringP("template", "t", config.DefaultTemplate, "Template set (see `stackgen templates`)")
	f.String("package-manager", config.DefaultPackageManager, "Package manager: "+strings.Join(installer.Managers(), ", "))
	f.Bool("skip-install", false, "Do not install dependencies")
	f.Bool("skip-patch", false, "Do not patch generated manifests")
	f.Bool("parallel", false, "Build the client and backend trees concurrently")
	f.Duration("install-timeout", config.DefaultInstallTimeout, "Upper bound for each dependency install")
	f.BoolVar(&newShowTree, "tree", false, "Print the generated directory tree")
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Scaffold a new client/backend project",
	Long: strings.TrimSpace(dedent.Dedent(`
		Create a project directory containing a React client and an Express
		backend from a template set, add missing manifest keys, and install
		dependencies in each tree.

		The project name comes from the argument, --name, STACKGEN_PROJECT_NAME
		or the config file, in that order; when none is set it is prompted for.

		Examples:
		  stackgen new demo
		  stackgen new demo --template full --package-manager pnpm
		  stackgen new demo --skip-install --tree`)),
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	opts, err := config.ResolveOptions()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		opts.ProjectName = args[0]
	}
	if opts.ProjectName == "" {
		name, err := readProjectName(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		opts.ProjectName = name
	}

	set, err := catalog.Load(opts.Template)
	if err != nil {
		return fmt.Errorf("loading template set: %w", err)
	}
	branches, err := project.Plan(opts, set)
	if err != nil {
		return err
	}
	root, err := project.Root(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := logging.From(ctx)
	log.Debug().Str("root", root).Str("template", set.Name).Bool("parallel", opts.Parallel).Msg("scaffolding project")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Creating %s in %s (template %s)\n\n", opts.ProjectName, root, set.Name)

	fsys := afero.NewOsFs()
	engine := &scaffold.Engine{
		Fs:             fsys,
		InstallTimeout: opts.InstallTimeout,
		Parallel:       opts.Parallel,
	}
	if !opts.SkipInstall {
		inst := installer.Dispatch(opts.PackageManager)
		if ci, ok := inst.(*installer.CommandInstaller); ok {
			// Keep stdout for the summary. Parallel branches share the writer.
			live := zerolog.SyncWriter(cmd.ErrOrStderr())
			ci.Stdout = live
			ci.Stderr = live
		}
		engine.Installer = inst
	}

	start := time.Now()
	report := engine.Run(ctx, branches)
	report.Print(out)

	if newShowTree {
		fmt.Fprintln(out)
		if err := scaffold.RenderTree(out, fsys, root); err != nil {
			log.Warn().Err(err).Msg("rendering tree")
		}
	}

	if report.Failed() {
		return fmt.Errorf("scaffold failed for %s", strings.Join(report.FailedBranches(), ", "))
	}

	fmt.Fprintf(out, "\nDone in %s.\n", time.Since(start).Round(time.Millisecond))
	printNextSteps(cmd, opts)
	return nil
}

func printNextSteps(cmd *cobra.Command, opts config.Options) {
	install := ""
	if opts.SkipInstall {
		install = opts.PackageManager + " install && "
	}
	steps := fmt.Sprintf(dedent.Dedent(`
		Next steps:
		  cd %[1]s/backend && %[2]s%[3]s start
		  cd %[1]s/client && %[2]s%[3]s start
	`), opts.ProjectName, install, opts.PackageManager)
	fmt.Fprint(cmd.OutOrStdout(), steps)
}
