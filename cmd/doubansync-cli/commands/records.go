package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/transform"
)

var recordsListType *string
var recordsSearchLimit *int

func init() {
	recordsListType = recordsListCmd.Flags().String("type", "", "Only list records of this content type.")
	recordsSearchLimit = recordsSearchCmd.Flags().Int("limit", 10, "Maximum number of results.")
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsSearchCmd)
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored records.",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <user id>",
	Short: "List stored records for a user.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var ct transform.ContentType
		if *recordsListType != "" {
			parsed, err := transform.ParseContentType(*recordsListType)
			if err != nil {
				serviceutil.Fatal("parse content type", err)
			}
			ct = parsed
		}

		_, service, cleanup := openServices()
		defer cleanup()

		records, err := service.ListRecords(cmd.Context(), args[0], ct)
		if err != nil {
			serviceutil.Fatal("list records", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"content type", "subject id", "title", "status", "synced at"})
		for _, rec := range records {
			t.AppendRow(table.Row{
				rec.ContentType,
				rec.SubjectID,
				rec.Title,
				rec.Status,
				rec.SyncedAt.Format("2006-01-02 15:04"),
			})
		}
		t.Render()
	},
}

var recordsSearchCmd = &cobra.Command{
	Use:   "search <user id> <query>",
	Short: "Search a user's records by title.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_, service, cleanup := openServices()
		defer cleanup()

		results, err := service.SearchRecords(cmd.Context(), args[0], args[1], *recordsSearchLimit)
		if err != nil {
			serviceutil.Fatal("search records", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"similarity", "content type", "subject id", "title"})
		for _, res := range results {
			t.AppendRow(table.Row{
				fmt.Sprintf("%.2f", res.Similarity),
				res.Record.ContentType,
				res.Record.SubjectID,
				res.Record.Title,
			})
		}
		t.Render()
	},
}
