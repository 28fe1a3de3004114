package commands

import (
	"encoding/json"
	"fmt"

	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var jsonFormat bool
	c := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Detect the body part of an X-ray, then its fracture status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPredictor(func(p *model.Predictor) error {
				a, err := p.Analyze(args[0], 0)
				if err != nil {
					return err
				}
				if jsonFormat {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(a)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Body part: %s (%.2f)\n", a.BodyPart.Class, a.BodyPart.Confidence)
				_, err = fmt.Fprintf(out, "Fracture:  %s (%.2f)\n", a.FractureStatus.Class, a.FractureStatus.Confidence)
				return err
			})
		},
	}
	c.Flags().BoolVar(&jsonFormat, "json", false, "Print the full analysis as JSON")
	return c
}
