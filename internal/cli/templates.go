package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackgen-labs/stackgen/internal/catalog"
)

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
	rootCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List and validate the embedded template sets",
	Long: `Template sets are embedded in the binary. A set lists the directories,
files, .env entries and manifest patches for each tree (client, backend) and
may extend another set.

With no subcommand, lists the available sets.`,
	RunE: runTemplatesList,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List template sets",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesList,
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate [set...]",
	Short: "Validate template sets",
	Long: `Resolve each set (all sets by default) and validate every package.json it
would write, and check that each patch targets a file the set provides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Default()
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			for _, s := range c.List() {
				names = append(names, s.Name)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range names {
			set, err := c.Load(name)
			if err != nil {
				fmt.Fprintf(out, "  [FAIL] %s: %v\n", name, err)
				failed++
				continue
			}
			problems := catalog.Validate(set)
			if len(problems) == 0 {
				fmt.Fprintf(out, "  [ OK ] %s\n", name)
				continue
			}
			failed++
			fmt.Fprintf(out, "  [FAIL] %s: %d problem(s):\n", name, len(problems))
			for _, p := range problems {
				fmt.Fprintf(out, "    - %s\n", p)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d template set(s) failed validation", failed, len(names))
		}
		return nil
	},
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	sets, err := catalog.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXTENDS\tDESCRIPTION")
	for _, s := range sets {
		extends := s.Extends
		if extends == "" {
			extends = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, extends, s.Description)
	}
	return w.Flush()
}
