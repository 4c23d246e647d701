// Package commands implements the pdfx command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

// NewRootCmd builds the pdfx command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pdfx",
		Short: "Extract and analyse text from PDF files",
		Long: `pdfx extracts text from PDF files with an embedded, layout-aware or OCR backend,
then normalizes it, picks keywords and pulls out emails, phones, URLs and dates.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newBackendsCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.NewLogger(logger.WithConfig(cfg.Logging))
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
