// Command chartrender renders chart documents to SVG or PNG files and
// prints sample documents and API tokens.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgdash/canvaschart/internal/asset"
	"github.com/pgdash/canvaschart/internal/auth"
	"github.com/pgdash/canvaschart/internal/config"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/export"
	"github.com/pgdash/canvaschart/internal/store"
)

type renderFlags struct {
	output      string
	format      string
	databaseURL string
	assetDir    string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chartrender",
		Short:         "Render chart documents to SVG or PNG",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRenderCmd(cfg), newSampleCmd(), newTokenCmd(cfg))
	return rootCmd
}

func newRenderCmd(cfg *config.Config) *cobra.Command {
	f := renderFlags{databaseURL: cfg.DatabaseURL}
	cmd := &cobra.Command{
		Use:   "render [document.json|-]",
		Short: "Render a chart document",
		Long: `Render reads a chart document and writes it as SVG or PNG. The
format comes from --format or else from the output file's extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cfg, f, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: svg or png")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", f.databaseURL, "PostgreSQL URL for stored series")
	cmd.Flags().StringVar(&f.assetDir, "assets", "", "Directory of uploaded image assets")
	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, f renderFlags, input string, stdout io.Writer) error {
	format := f.format
	if format == "" && f.output != "" {
		format = filepath.Ext(f.output)
	}
	fmtOut, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}
	doc, err := document.ParseWith(in, cfg.ChartDefaults())
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	fonts, err := engine.NewFontMeasurer()
	if err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}
	defer fonts.Close()

	r := &export.Renderer{Fonts: fonts, Logger: slog.Default()}
	if f.assetDir != "" {
		r.Images = asset.NewHandler(f.assetDir)
	}
	if f.databaseURL != "" {
		pool, err := store.NewPool(ctx, f.databaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		r.Loader = store.New(pool, cfg.MaxSamples, slog.Default())
	}

	var buf bytes.Buffer
	start := time.Now()
	if err := r.Render(ctx, doc, fmtOut, &buf); err != nil {
		return err
	}
	slog.Debug("rendered", "input", input, "format", fmtOut, "bytes", buf.Len(), "duration", time.Since(start))

	if f.output == "" {
		_, err := buf.WriteTo(stdout)
		return err
	}
	return os.WriteFile(f.output, buf.Bytes(), 0644)
}

func newSampleCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "sample [timeseries|diagram]",
		Short: "Print a sample chart document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) > 0 {
				kind = args[0]
			}
			doc, err := document.NewSample(kind, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(doc)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	secret := cfg.AuthSecret
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Issue an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewService(secret).IssueToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", secret, "Signing secret (default: AUTH_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
