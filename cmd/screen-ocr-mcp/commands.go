package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/screen-ocr-mcp/internal/config"
	"github.com/ironsheep/screen-ocr-mcp/internal/logging"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
	"github.com/ironsheep/screen-ocr-mcp/internal/server"
)

// app carries state shared by the commands.
type app struct {
	cfgFile  string
	envFile  string
	logLevel string

	cfg     *config.Config
	log     zerolog.Logger
	factory ocr.EngineFactory
}

func (a *app) newServer() *server.Server {
	opts := []server.Option{server.WithLogger(a.log), server.WithVersion(Version)}
	if a.factory != nil {
		opts = append(opts, server.WithEngineFactory(a.factory))
	}
	return server.New(a.cfg, opts...)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "screen-ocr-mcp",
		Short: "MCP server that reads the text in screen captures",
		Long: `screen-ocr-mcp recognizes text in screen captures with Tesseract.

Captures are converted to grayscale and upscaled towards 500 DPI, bounded
by addressable size and free memory, before recognition. Without a
subcommand the MCP server runs on stdin/stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile, a.envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			a.cfg = cfg
			a.log = logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newRecognizeCmd(a),
		newPrepareCmd(a),
		newLanguagesCmd(a),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a)
		},
	}
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info().Str("version", Version).Str("build_time", BuildTime).Str("commit", GitCommit).
		Str("tessdata", a.cfg.Tesseract.TessdataPath).Msg("starting MCP server")

	srv := a.newServer()
	err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newRecognizeCmd(a *app) *cobra.Command {
	var language, region string
	cmd := &cobra.Command{
		Use:   "recognize FILE",
		Short: "Print the text recognized in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := a.newServer()
			defer srv.Close()

			res, err := srv.Recognize(cmd.Context(), server.Target{Path: args[0], Region: region}, language)
			if err != nil {
				return err
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Tesseract language code (default from config)")
	cmd.Flags().StringVar(&region, "region", "", "named region to recognize (e.g. top-half, center)")
	return cmd
}

func newPrepareCmd(a *app) *cobra.Command {
	var output, region string
	cmd := &cobra.Command{
		Use:   "prepare FILE",
		Short: "Write the preprocessed image that recognition would see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := a.newServer()
			defer srv.Close()

			res, err := srv.Prepare(server.Target{Path: args[0], Region: region}, output, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, %d-bit, %dx%d dpi, scale %.3f (%s)\n",
				res.OutputPath, res.Width, res.Height, res.BitDepth, res.XRes, res.YRes,
				res.Scale.Scale, scaleReason(res.Scale.Reason))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG path (required)")
	cmd.Flags().StringVar(&region, "region", "", "named region to prepare")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func scaleReason(reason string) string {
	if reason == "" {
		return "scaled"
	}
	return reason
}

func newLanguagesCmd(a *app) *cobra.Command {
	var tessdata string
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List installed recognition languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tessdata == "" {
				tessdata = a.cfg.Tesseract.TessdataPath
			}
			langs := ocr.AvailableLanguages(tessdata)
			if len(langs) == 0 {
				return fmt.Errorf("no languages installed in %q", tessdata)
			}
			for _, l := range langs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", l.ID, l.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tessdata, "tessdata", "", "tessdata directory (default from config)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "screen-ocr-mcp %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
