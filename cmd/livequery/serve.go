package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/store"
	transport "github.com/autom8ter/livequery/transport/http"
	"github.com/autom8ter/livequery/util"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func serveCmd() *cobra.Command {
	var schemas map[string]string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a document store over http",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lgger, err := cfg.logger()
			if err != nil {
				return err
			}
			opts := []store.Opt{store.WithLogger(lgger)}
			for collection, path := range schemas {
				schema, err := readJSON(path)
				if err != nil {
					return err
				}
				opts = append(opts, store.WithSchema(collection, schema))
			}
			db, err := store.Open(cfg.Provider, map[string]any{"storage_path": cfg.StoragePath}, opts...)
			if err != nil {
				return err
			}
			defer db.Close()
			var serverOpts = []transport.Opt{transport.WithLogger(lgger)}
			if cfg.RateLimit > 0 {
				serverOpts = append(serverOpts, transport.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.Burst))
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return transport.New(db, serverOpts...).Serve(ctx, cfg.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "address to listen on")
	cmd.Flags().String("provider", "badger", "key value storage provider")
	cmd.Flags().String("storage-path", "", "storage path, empty for an in-memory store")
	cmd.Flags().Float64("rate-limit", 0, "requests per second per client, zero disables rate limiting")
	cmd.Flags().Int("burst", 20, "rate limit burst")
	cmd.Flags().StringToStringVar(&schemas, "schema", map[string]string{}, "collection=path of a json schema (yaml or json) validating the collection's documents")
	return cmd
}

// readJSON reads a yaml or json file as json
func readJSON(path string) ([]byte, error) {
	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to read %s", path)
	}
	bits, err = util.YAMLToJSON(bits)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to parse %s", path)
	}
	return bits, nil
}
