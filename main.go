package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"disklabels/internal/volumes"
)

// partialError marks a run whose report was printed although some volumes
// could not be fully inspected.
type partialError struct {
	err error
}

func (e *partialError) Error() string { return e.err.Error() }
func (e *partialError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(os.Stderr, err))
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var partial *partialError
	if errors.As(err, &partial) {
		_, _ = fmt.Fprintf(stderr, "Warning: %v\n", partial.err)
		return 2
	}
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "disklabels",
		Short:         "List macOS volumes with their installed OS and boot labels",
		Version:       appversion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReport,
	}
	addConfigFlags(root.PersistentFlags())

	export := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the inventory as JSON into a (compressed) file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	export.Flags().StringP("compress", "c", "gzip", "Compression: gzip, zlib, bzip2, snappy, s2, zstd, zip or none")
	root.AddCommand(export)

	return root
}

// session is the state shared by every command once flags are resolved.
type session struct {
	cfg    config
	logger zerolog.Logger
	inv    *volumes.Inventory
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err := checkForDiskutil(cfg.Diskutil); err != nil {
		return nil, err
	}
	logger.Debug().Interface("config", cfg).Msg("configuration loaded")
	return &session{cfg: cfg, logger: logger, inv: newInventory(cfg, logger)}, nil
}

func (s *session) startProgress(cmd *cobra.Command) *progressLine {
	progress := startProgress(cmd.ErrOrStderr(), !s.cfg.NoProgress)
	if progress != nil {
		s.inv.Progress = progress.update
	}
	return progress
}

func classify(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return &partialError{err: err}
	}
	return err
}

func runReport(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	renderer, err := newRenderer(s.cfg.Output)
	if err != nil {
		return err
	}

	progress := s.startProgress(cmd)
	err = s.inv.Report(cmd.Context(), cmd.OutOrStdout(), renderer)
	progress.stop()
	return classify(err)
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	algorithm, err := cmd.Flags().GetString("compress")
	if err != nil {
		return err
	}
	if _, err := getCompressionExtension(algorithm); err != nil {
		return err
	}

	progress := s.startProgress(cmd)
	vols, err := s.inv.Collect(cmd.Context())
	progress.stop()
	if vols == nil && err != nil {
		return err
	}
	if _, xerr := exportInventory(cmd.OutOrStdout(), args[0], algorithm, vols); xerr != nil {
		return xerr
	}
	return classify(err)
}
