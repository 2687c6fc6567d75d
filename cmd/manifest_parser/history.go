package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"manifest_parser/internal/storage"
)

var (
	historySQLite string
	historyFlight string
	historyOrigin string
	historyLimit  int
	historyAWB    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List manifests archived in SQLite",
	Example: `  manifest_parser history --sqlite manifests.db --flight AF1234
  manifest_parser history --awb 057-12345675`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySQLite, "sqlite", "", "SQLite archive path (env: SQLITE_PATH, default manifests.db)")
	historyCmd.Flags().StringVar(&historyFlight, "flight", "", "Only manifests of this flight")
	historyCmd.Flags().StringVar(&historyOrigin, "origin", "", "Only manifests loaded at this point")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of manifests")
	historyCmd.Flags().StringVar(&historyAWB, "awb", "", "Show the containers carrying this AWB instead")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historySQLite
	if path == "" {
		path = cfg.Storage.SQLitePath
	}
	if path == "" {
		path = storage.DefaultConfig().SQLitePath
	}

	db, err := storage.OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if historyAWB != "" {
		found, err := db.ContainersByAWB(cmd.Context(), historyAWB)
		if err != nil {
			return err
		}
		return enc.Encode(found)
	}

	list, err := db.ListManifests(cmd.Context(), storage.ListParams{
		FlightNo: historyFlight,
		Origin:   historyOrigin,
		Limit:    historyLimit,
	})
	if err != nil {
		return err
	}
	if list == nil {
		list = []storage.Summary{}
	}
	return enc.Encode(list)
}
