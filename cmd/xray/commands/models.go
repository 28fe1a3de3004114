package commands

import (
	"strings"

	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models and where their weights are read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := model.DefaultPaths(opts.modelsDir)

			var data [][]string
			for _, name := range model.Names {
				data = append(data, []string{string(name), strings.Join(name.Labels(), ", "), paths[name]})
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"MODEL", "LABELS", "WEIGHTS"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoFormatHeaders(false)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk(data)
			table.Render()
			return nil
		},
	}
}
