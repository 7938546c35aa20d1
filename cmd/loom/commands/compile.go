package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/loom/internal/app"
)

func (c *CLI) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [dir]",
		Short: "Compile the weft documents of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			outDir, _ := cmd.Flags().GetString("out")
			jobs, _ := cmd.Flags().GetInt("jobs")
			return c.app.Run(cmd.Context(), dir, app.RunOptions{
				OutDir: outDir,
				Jobs:   jobs,
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write generated files into this directory instead of next to their sources")
	cmd.Flags().IntP("jobs", "j", 0, "Number of documents to compile in parallel (default: number of CPUs)")
	return cmd
}
