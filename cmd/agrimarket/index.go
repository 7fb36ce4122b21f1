package main

import (
	"fmt"

	"github.com/siherrmann/agrimarket/database"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index new articles and daily summaries for document search",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := open(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if indexType, _ := cmd.Flags().GetString("index-type"); indexType != "" {
			err = a.ChangeIndexType(cmd.Context(), indexType, database.IndexParams{})
			if err != nil {
				return err
			}
		}

		added, err := a.IndexNew(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d new documents (%d known)\n", added, a.Indexer.Keys().Len())
		return nil
	},
}

func init() {
	indexCmd.Flags().String("index-type", "", "rebuild the vector index first (hnsw or ivfflat)")
}
