package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Brownie44l1/xray-api/cmd/xray/commands"
	"github.com/Brownie44l1/xray-api/internal/envconfig"
	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/Brownie44l1/xray-api/internal/onnx"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(envconfig.LogLevel())

	rootCmd := commands.NewRootCmd(log, func() (model.Loader, io.Closer) {
		rt := onnx.NewRuntime(onnx.Options{
			SharedLibraryPath: envconfig.SharedLibrary(),
			NumThreads:        envconfig.NumThreads(),
			Logger:            log.WithField("component", "onnx"),
		})
		return rt.Load, rt
	})

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
