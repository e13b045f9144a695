package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nagarh/anthroab-dist/internal/config"
	"github.com/nagarh/anthroab-dist/internal/descriptor"
	"github.com/nagarh/anthroab-dist/internal/dist"
)

var cfgFile string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "abdist",
		Short: "Build distribution metadata and source archives for anthroab",
		Long: "abdist assembles the anthroab distribution metadata record from the package version file and README, " +
			"writes PKG-INFO and reproducible source distributions, and checks that declared requirements can be met.",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .abdist.yaml)")
	flags.String("root", ".", "Repository root")
	flags.String("package", descriptor.DefaultPackage, "Package directory")
	flags.String("project", "", "Project overlay file (abdist.toml or abdist.yaml)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.Bool("trace", false, "Trace output")
	for _, name := range []string{"root", "package", "project", "verbose", "trace"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newMetadataCmd(),
		newSdistCmd(),
		newInspectCmd(),
		newSumsCmd(),
		newCheckCmd(),
	)
	return rootCmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".abdist")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ABDIST")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// env is what every subcommand starts from.
type env struct {
	cfg  config.Config
	desc *descriptor.Descriptor
	L    hclog.Logger
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := hclog.Info
	if cfg.Verbose {
		level = hclog.Debug
	}
	if cfg.Trace {
		level = hclog.Trace
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:   "abdist",
		Level:  level,
		Output: os.Stderr,
	})

	d := descriptor.New(cfg.Root)
	d.Readme = cfg.Readme
	d.SetPackage(cfg.Package)

	if cfg.Project != "" {
		L.Debug("applying project file", "path", cfg.Project)
		pf, err := descriptor.LoadProjectFile(cfg.Project)
		if err != nil {
			return nil, err
		}
		if err := pf.Apply(d); err != nil {
			return nil, fmt.Errorf("applying %s: %w", cfg.Project, err)
		}
	}

	return &env{cfg: cfg, desc: d, L: L}, nil
}

func (e *env) build() (*dist.Metadata, error) {
	e.L.Debug("reading version file", "path", e.desc.VersionFilePath())
	m, err := e.desc.Build()
	if err != nil {
		return nil, fmt.Errorf("building metadata: %w", err)
	}
	e.L.Debug("built metadata", "name", m.Name, "version", m.Version, "requires", len(m.Requires))
	return m, nil
}
