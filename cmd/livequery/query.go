package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/autom8ter/livequery"
	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/model"
	transport "github.com/autom8ter/livequery/transport/http"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	collection string
	update     string
	orderBy    []string
	limit      int
	pages      int
	debounce   time.Duration
}

func queryCmd() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "run a live query against a server and print every page as json lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			state, err := flags.state()
			if err != nil {
				return err
			}
			lgger, err := cfg.logger()
			if err != nil {
				return err
			}
			type completion struct {
				result *livequery.Result[model.Snapshot]
				err    error
			}
			completions := make(chan completion, 1)
			e, err := livequery.New[model.Snapshot](flags.collection, state, transport.NewClient(cfg.Server),
				livequery.WithDebounce[model.Snapshot](flags.debounce),
				livequery.WithLogger[model.Snapshot](lgger),
				livequery.WithContext[model.Snapshot](cmd.Context()),
				livequery.OnLoadComplete(func(result *livequery.Result[model.Snapshot], err error) {
					completions <- completion{result: result, err: err}
				}),
			)
			if err != nil {
				return err
			}
			defer e.Close()
			encoder := json.NewEncoder(cmd.OutOrStdout())
			for page := 1; ; page++ {
				var done completion
				select {
				case done = <-completions:
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
				if done.err != nil {
					return done.err
				}
				for _, item := range done.result.Items {
					if err := encoder.Encode(item); err != nil {
						return err
					}
				}
				if done.result.Cursor == nil || (flags.pages > 0 && page >= flags.pages) {
					return nil
				}
				e.LoadNext()
			}
		},
	}
	cmd.Flags().StringVarP(&flags.collection, "collection", "c", "user", "collection to query")
	cmd.Flags().StringVarP(&flags.update, "file", "f", "", "yaml or json file with filters, orderBy, limit and startAfter")
	cmd.Flags().StringSliceVar(&flags.orderBy, "order-by", nil, "field[:asc|desc] to order by, may be repeated")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 10, "page size")
	cmd.Flags().IntVar(&flags.pages, "pages", 1, "number of pages to load, zero loads every page")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 10*time.Millisecond, "debounce period")
	cmd.Flags().String("server", "http://localhost:8080", "http server url")
	return cmd
}

// state builds the query state from the options file and flags. Flags take precedence.
func (f queryFlags) state() (*livequery.State, error) {
	state := livequery.NewState(livequery.Options{})
	if f.update != "" {
		bits, err := readJSON(f.update)
		if err != nil {
			return nil, err
		}
		update, err := livequery.ParseUpdate(bits)
		if err != nil {
			return nil, err
		}
		livequery.Merge(state, update)
	}
	update := &livequery.Update{}
	if f.limit > 0 {
		update.Limit = livequery.Set(f.limit)
	}
	if len(f.orderBy) > 0 {
		orderBy, err := parseOrderBy(f.orderBy)
		if err != nil {
			return nil, err
		}
		update.OrderBy = livequery.Set(orderBy)
	}
	livequery.Merge(state, update)
	return state, nil
}

func parseOrderBy(values []string) ([]model.OrderBy, error) {
	var spec []map[string]any
	for _, value := range values {
		field, direction, _ := strings.Cut(value, ":")
		if field == "" {
			return nil, errors.New(errors.Validation, "invalid order by: '%s'", value)
		}
		spec = append(spec, map[string]any{"fieldPath": field, "direction": direction})
	}
	orderBy, err := model.NormalizeOrder(spec)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "invalid --order-by")
	}
	return orderBy, nil
}
