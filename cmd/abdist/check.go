package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nagarh/anthroab-dist/internal/checker"
	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/downloader"
	"github.com/nagarh/anthroab-dist/internal/freeze"
	"github.com/nagarh/anthroab-dist/internal/index"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the declared requirements can be satisfied",
		Long: "Without --installed, every requirement is looked up on the package index. " +
			"With --installed, the requirements are checked against a `pip freeze` listing of the target environment.",
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	cmd.Flags().String("installed", "", "pip freeze output of the target environment")
	cmd.Flags().String("index-url", index.DefaultURL, "Package index URL")
	cmd.Flags().IntP("workers", "w", 5, "Parallel index requests")
	cmd.Flags().Bool("pre", false, "Accept pre-release versions")
	_ = viper.BindPFlag("index_url", cmd.Flags().Lookup("index-url"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	m, err := e.build()
	if err != nil {
		return err
	}

	installed, _ := cmd.Flags().GetString("installed")
	pre, _ := cmd.Flags().GetBool("pre")

	var source checker.VersionSource
	if installed != "" {
		env, err := freeze.NewParser().ParseFile(installed)
		if err != nil {
			return err
		}
		e.L.Debug("loaded environment", "path", installed, "installed", env.Len())
		source = env
		// whatever is installed counts, pre-release or not
		pre = true
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		dl := downloader.NewDownloader(e.cfg.Workers, e.cfg.CacheDir)
		dl.L = e.L.Named("downloader")
		idx := index.NewPyPIIndex(e.cfg.IndexURL, dl)
		idx.L = e.L.Named("index")

		e.L.Info("loading index", "url", idx.URL(), "projects", len(m.Requires))
		if err := idx.Load(ctx, requirementNames(m.Requires)); err != nil {
			return fmt.Errorf("loading index: %w", err)
		}
		source = idx
	}

	c := checker.NewChecker(source)
	c.L = e.L.Named("checker")
	c.AllowPrereleases(pre)
	results := c.Check(m.Requires)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REQUIREMENT\tSELECTED\tSTATUS")
	for _, r := range results {
		status := "ok"
		if !r.Satisfied() {
			status = r.Err.Error()
		}
		selected := r.Selected
		if selected == "" {
			selected = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Requirement, selected, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed := checker.Unsatisfied(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d requirements cannot be satisfied", len(failed), len(results))
	}
	return nil
}

func requirementNames(reqs []dist.Requirement) []string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name
	}
	return names
}
