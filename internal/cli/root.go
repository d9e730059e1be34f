// Package cli implements the dictlookup command line.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/function"
	"dictlookup/internal/logging"
	"dictlookup/internal/reader"
	"dictlookup/internal/source"
)

// app is the state shared by every subcommand, filled in by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	debug      bool

	cfg     *config.Config
	logger  zerolog.Logger
	catalog *dictionary.Catalog
	funcs   *function.Registry
}

// NewRootCmd creates the root command with the lookup, check, dictionaries
// and serve subcommands.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "dictlookup",
		Short:        "Batched key lookups against in-memory dictionaries",
		Version:      ver,
		SilenceUsage: true,
		Example:      rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.AddCommand(newLookupCmd(a), newCheckCmd(a), newDictionariesCmd(a), newServeCmd(a))
	return cmd
}

const rootCmdExample = `  # Look up two attributes for three keys
  dictlookup -c dictionaries.yaml lookup --dictionary geo --attribute city --attribute population:int64 --keys 1,2,3

  # Verify that every configured dictionary loads and binds
  dictlookup -c dictionaries.yaml check

  # Serve lookups over HTTP
  dictlookup -c dictionaries.yaml serve --address :9090`

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	level := cfg.Logging.Level
	if a.debug {
		level = "debug"
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{Level: level, Format: cfg.Logging.Format, Output: cmd.ErrOrStderr()})
	a.catalog = dictionary.NewCatalog()
	a.funcs = function.NewRegistry()
	if err := dictionary.Register(a.funcs, a.catalog); err != nil {
		return err
	}
	a.logger.Debug().Str("command", cmd.Name()).Str("config", a.configPath).Msg("starting")
	return nil
}

// load reads the named dictionaries, or every configured one when names is
// empty, into the catalog.
func (a *app) load(ctx context.Context, names ...string) error {
	specs := a.cfg.Dictionaries
	if len(names) > 0 {
		specs = make([]config.Dictionary, 0, len(names))
		for _, name := range names {
			spec, ok := a.cfg.Lookup(name)
			if !ok {
				return fmt.Errorf("%w: %s is not configured", dictionary.ErrUnknownDictionary, name)
			}
			specs = append(specs, spec)
		}
	}
	return source.LoadAll(ctx, a.catalog, specs, logging.ComponentLogger(a.logger, "source"))
}

func (a *app) resolver() reader.Resolver { return reader.FromRegistry(a.funcs) }
