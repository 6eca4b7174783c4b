// Package main is the entry point for the resumable DICOM batch anonymizer.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dicom-batch-anonymizer/internal/cli"
	"dicom-batch-anonymizer/internal/config"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "anonymizer",
		Short: "Resumable DICOM batch anonymizer",
		Long: `Anonymizer walks a DICOM corpus and writes an anonymized copy of every
record, replacing the patient, accession, study, series and instance
identifiers with stable sequential pseudonyms.

All durable state (link logs, master case log, work partition) lives in
the linking log directory as flat JSON snapshots. Re-running against the
same corpus is idempotent: identifiers keep their assigned pseudonyms and
already-anonymized records are never emitted twice. If the dataset is
larger than the available space, run the program as many times as needed,
each time specifying the space available in the output directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if opts.InputDir == "" {
				return errors.New("input directory is required (-d)")
			}

			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			return cli.Run(cmd.Context(), opts, log)
		},
	}

	f := rootCmd.Flags()
	f.StringP("input", "d", "", "input DICOM directory path")
	f.StringP("output", "o", "./anondata", "output DICOM directory path")
	f.StringP("linklog", "l", "./linklog", "linking log (durable state) directory")
	f.Float64P("space", "s", 0, "space available for the output directory, in GB (0 = all free space)")
	f.StringP("group", "g", "s", "group output dicoms by anonymized studyID (s), MRN (m), or not at all (n)")
	f.Int("workers", config.DefaultWorkers(), "concurrent directory workers")
	f.Bool("case-sensitive", false, "match identifiers case-sensitively (legacy link logs)")
	f.BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
