package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/problem"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the built-in problems and their defaults",
	RunE:  runListProblems,
}

func init() {
	rootCmd.AddCommand(problemsCmd)
}

func runListProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTARGET\tPOPULATION\tGENES\tGENERATIONS\tDESCRIPTION")

	for _, name := range problem.Names() {
		p, err := problem.Get(name)
		if err != nil {
			return err
		}
		d := p.Defaults()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			name, d.Target, d.Population, d.GenomeLength, d.MaxGenerations, p.Description())
	}

	return w.Flush()
}
