package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) strategiesCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List screening strategies and their default conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			list := catalog.List()
			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(map[string]any{"strategies": list})
			}

			labels := a.labels()
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.Style().Options.DrawBorder = false
			tw.Style().Options.SeparateRows = false
			tw.Style().Options.SeparateColumns = false
			tw.AppendHeader(table.Row{"ID", "NAME", "CONDITIONS", "DESCRIPTION"})
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: a.maxColWidth()}})
			for _, s := range list {
				conds := make([]string, 0, len(s.Conditions))
				for _, c := range s.Conditions {
					conds = append(conds, c.Describe(labels, c.Default))
				}
				tw.AppendRow(table.Row{s.ID, s.Name, strings.Join(conds, "\n"), s.Description})
			}
			tw.Render()
			_, err = fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as a strategies file, a starting point for strategies.path")
	return cmd
}
