package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/transform"
)

var syncKinds *[]string

func init() {
	syncKinds = syncCmd.Flags().StringSlice("kinds", nil, "Content types to sync, defaults to all of them.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync <user id>",
	Short: "Pull every shelf for a user and store the records.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kinds := make([]transform.ContentType, 0, len(*syncKinds))
		for _, raw := range *syncKinds {
			ct, err := transform.ParseContentType(raw)
			if err != nil {
				serviceutil.Fatal("parse kinds", err)
			}
			kinds = append(kinds, ct)
		}

		_, service, cleanup := openServices()
		defer cleanup()

		report, err := service.SyncUser(cmd.Context(), args[0], kinds)
		if err != nil && !report.Interrupted {
			serviceutil.Fatal("sync", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"content type", "synced"})
		for _, ct := range transform.ContentTypes() {
			if report.Synced[ct] > 0 {
				t.AppendRow(table.Row{ct, report.Synced[ct]})
			}
		}
		t.AppendFooter(table.Row{"total", report.TotalSynced()})
		t.Render()

		fmt.Printf("skipped: %d  failed: %d  warnings: %d\n", report.Skipped, report.Failed, report.Warnings)
		if report.Interrupted {
			fmt.Println("session interrupted:", report.Reason)
			os.Exit(1)
		}
	},
}
