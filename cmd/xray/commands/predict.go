package commands

import (
	"fmt"

	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPredictCmd(opts *options) *cobra.Command {
	var (
		name    string
		verbose int
	)
	c := &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Print the label one model assigns to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose > 0 && !opts.log.IsLevelEnabled(logrus.InfoLevel) {
				opts.log.SetLevel(logrus.InfoLevel)
			}
			return opts.withPredictor(func(p *model.Predictor) error {
				label, err := p.Predict(args[0], name, verbose)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), label)
				return err
			})
		},
	}
	c.Flags().StringVarP(&name, "model", "m", string(model.Parts), "Model to use: Parts, Elbow, Hand or Shoulder")
	c.Flags().IntVarP(&verbose, "verbose", "v", 0, "Verbosity level passed to the classifier")
	return c
}
