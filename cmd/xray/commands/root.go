package commands

import (
	"fmt"
	"io"

	"github.com/Brownie44l1/xray-api/internal/envconfig"
	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// LoaderFunc returns the loader used to build a registry and the resource
// to release once the registry is closed.
type LoaderFunc func() (model.Loader, io.Closer)

type options struct {
	log       *logrus.Logger
	newLoader LoaderFunc
	modelsDir string
}

func NewRootCmd(log *logrus.Logger, newLoader LoaderFunc) *cobra.Command {
	opts := &options{log: log, newLoader: newLoader}
	rootCmd := &cobra.Command{
		Use:           "xray",
		Short:         "Classify X-ray images by body part and fracture status",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.modelsDir, "models", envconfig.Models(), "Directory holding the model weights")
	rootCmd.AddCommand(
		newPredictCmd(opts),
		newAnalyzeCmd(opts),
		newModelsCmd(opts),
	)
	return rootCmd
}

// withPredictor loads the registry, runs fn and releases everything again.
func (o *options) withPredictor(fn func(*model.Predictor) error) (err error) {
	load, closer := o.newLoader()
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	registry, err := model.NewRegistry(model.DefaultPaths(o.modelsDir), load)
	if err != nil {
		return fmt.Errorf("unable to load models: %w", err)
	}
	defer registry.Close()

	return fn(model.NewPredictor(registry, o.log.WithField("component", "predictor")))
}
