// Command moodmate-check verifies a moodmate installation. It prints one
// ✅/❌ line per check and exits non-zero when any check fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moodmate/moodmate/server/internal/config"
	"github.com/moodmate/moodmate/server/internal/selfcheck"
)

const defaultSample = "I am feeling great today!"

var errChecksFailed = errors.New("one or more checks failed")

type options struct {
	configPath string
}

// probeFlags are bound per command so each keeps its own --url default.
type probeFlags struct {
	url    string
	apiKey string
	sample string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "moodmate-check",
		Short:         "Verify a moodmate setup",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "server config file; empty checks the defaults")

	files := &cobra.Command{
		Use:   "files",
		Short: "Check that the config and step catalog load",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rep selfcheck.Report
			_, res := selfcheck.Config(opts.configPath)
			rep.Add(res...)
			return finish(cmd, "📁 Files", &rep)
		},
	}

	assets := &cobra.Command{
		Use:   "assets",
		Short: "Check the embedded page and static files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rep selfcheck.Report
			rep.Add(selfcheck.Assets(maxTextLength(opts.configPath))...)
			return finish(cmd, "🎨 Assets", &rep)
		},
	}

	probeOpts := &probeFlags{}
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Check a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rep selfcheck.Report
			rep.Add(newProber(opts.configPath, probeOpts).Run(cmd.Context(), probeOpts.sample)...)
			return finish(cmd, "🌐 Server", &rep)
		},
	}
	addProbeFlags(probe, probeOpts, "http://127.0.0.1:5000")

	allOpts := &probeFlags{}
	all := &cobra.Command{
		Use:   "all",
		Short: "Run every check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rep selfcheck.Report
			cfg, res := selfcheck.Config(opts.configPath)
			rep.Add(res...)
			limit := config.Defaults().Server.Analysis.MaxTextLength
			if cfg != nil {
				limit = cfg.Server.Analysis.MaxTextLength
			}
			rep.Add(selfcheck.Assets(limit)...)
			if allOpts.url != "" {
				rep.Add(newProber(opts.configPath, allOpts).Run(cmd.Context(), allOpts.sample)...)
			}
			return finish(cmd, "🔍 MoodMate setup", &rep)
		},
	}
	addProbeFlags(all, allOpts, "")

	root.AddCommand(files, assets, probe, all)
	return root
}

func addProbeFlags(cmd *cobra.Command, f *probeFlags, defaultURL string) {
	cmd.Flags().StringVar(&f.url, "url", defaultURL, "base URL of a running server")
	cmd.Flags().StringVar(&f.apiKey, "api-key", os.Getenv("MOODMATE_API_KEY"), "API key for /api/ routes")
	cmd.Flags().StringVar(&f.sample, "sample", defaultSample, "text to analyze; empty skips the analysis check")
}

func newProber(configPath string, f *probeFlags) *selfcheck.Prober {
	p := selfcheck.NewProber(f.url)
	p.APIKey = f.apiKey
	if cfg, err := config.Load(configPath); err == nil {
		p.Header = cfg.Server.Auth.EffectiveHeader()
	}
	return p
}

// maxTextLength reads the configured limit, falling back to the default when
// the config cannot be loaded.
func maxTextLength(path string) int {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Defaults().Server.Analysis.MaxTextLength
	}
	return cfg.Server.Analysis.MaxTextLength
}

func finish(cmd *cobra.Command, title string, rep *selfcheck.Report) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", title)
	if err := rep.Write(out); err != nil {
		return err
	}
	if rep.Failed() > 0 {
		return errChecksFailed
	}
	return nil
}
