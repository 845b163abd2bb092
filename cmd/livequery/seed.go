package main

import (
	"fmt"

	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/testutil"
	transport "github.com/autom8ter/livequery/transport/http"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var (
		count  int
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "write fake user documents to the user collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			docs := make([]*store.Document, 0, count)
			for i := 0; i < count; i++ {
				docs = append(docs, testutil.NewUserDoc())
			}
			if remote {
				client := transport.NewClient(cfg.Server)
				for _, doc := range docs {
					if _, err := client.Put(cmd.Context(), testutil.UserCollection, doc); err != nil {
						return err
					}
				}
			} else {
				lgger, err := cfg.logger()
				if err != nil {
					return err
				}
				db, err := store.Open(cfg.Provider, map[string]any{"storage_path": cfg.StoragePath},
					store.WithLogger(lgger),
					store.WithSchema(testutil.UserCollection, testutil.UserSchema),
				)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.PutAll(cmd.Context(), testutil.UserCollection, docs); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d %s documents\n", len(docs), testutil.UserCollection)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 100, "number of documents to write")
	cmd.Flags().BoolVar(&remote, "remote", false, "write through the http server instead of opening the store")
	cmd.Flags().String("server", "http://localhost:8080", "http server url")
	cmd.Flags().String("provider", "badger", "key value storage provider")
	cmd.Flags().String("storage-path", "", "storage path")
	return cmd
}
