package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/output"
	"github.com/feichai0017/pdf-processor/pkg/storage"
)

const sampleLength = 300

type extractOptions struct {
	*rootOptions
	backend   string
	output    string
	savePages bool
	workers   int
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract text from a PDF file or every PDF in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "extraction backend (embedded, layout, ocr, auto)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory (or key prefix for s3/minio) for the extracted files")
	cmd.Flags().BoolVar(&opts.savePages, "save-pages", false, "also write one text file per page")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "files processed in parallel in directory mode")
	return cmd
}

func (o *extractOptions) run(ctx context.Context, out io.Writer, path string) error {
	cfg, log, err := o.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if o.backend != "" {
		cfg.Backend.Mode = o.backend
	}
	if o.workers > 0 {
		cfg.Batch.Workers = o.workers
	}
	if o.savePages {
		cfg.Output.SavePages = true
	}

	writer, err := o.newWriter(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc, err := document.GetService(cfg, nil, nil, log)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	if !info.IsDir() {
		doc, err := svc.Process(ctx, path, "")
		if err != nil {
			return err
		}
		if err := o.save(ctx, writer, doc); err != nil {
			return err
		}
		printDocument(out, doc)
		printSample(out, doc.Text)
		return nil
	}

	results, err := svc.ProcessDirectory(ctx, path, "")
	if err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Err == nil {
			r.Err = o.save(ctx, writer, r.Document)
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "Error processing %s: %v\n", r.Path, r.Err)
			continue
		}
		printDocument(out, r.Document)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// newWriter returns nil when no output location was requested.
func (o *extractOptions) newWriter(ctx context.Context, cfg *config.Config, log logger.Logger) (*output.Writer, error) {
	if o.output == "" {
		return nil, nil
	}

	opts := output.Options{
		SaveText:  cfg.Output.SaveText,
		SaveJSON:  cfg.Output.SaveJSON,
		SavePages: cfg.Output.SavePages,
	}
	storageType := storage.StorageType(strings.ToLower(cfg.Output.Storage))
	root := o.output
	if storageType != storage.StorageTypeLocal {
		opts.Prefix = o.output
		root = ""
	}

	store, err := storage.NewStorage(ctx, storageType, cfg, root, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create output storage: %w", err)
	}
	return output.NewWriter(store, opts, log), nil
}

func (o *extractOptions) save(ctx context.Context, writer *output.Writer, doc *models.DocumentResult) error {
	if writer == nil {
		return nil
	}
	_, err := writer.Write(ctx, doc)
	return err
}

func printDocument(out io.Writer, doc *models.DocumentResult) {
	fmt.Fprintf(out, "Successfully processed: %s, %d pages\n", doc.Filename, doc.PageCount)
	for stage, msg := range doc.StageErrors {
		fmt.Fprintf(out, "  stage %s failed: %s\n", stage, msg)
	}
}

func printSample(out io.Writer, text string) {
	if text == "" {
		fmt.Fprintln(out, "Warning: No text was extracted from the PDF.")
		return
	}

	sample := []rune(text)
	suffix := ""
	if len(sample) > sampleLength {
		sample = sample[:sampleLength]
		suffix = "..."
	}

	rule := strings.Repeat("-", 50)
	fmt.Fprintf(out, "\nSample extracted text:\n%s\n%s%s\n%s\n", rule, string(sample), suffix, rule)
}
