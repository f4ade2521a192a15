package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/transform"
)

var exportType *string
var exportFormat *string
var exportOut *string

func init() {
	exportType = exportCmd.Flags().String("type", "", "Content type to export, required for csv.")
	exportFormat = exportCmd.Flags().String("format", "csv", "Export format, csv or jsonl.")
	exportOut = exportCmd.Flags().String("out", "", "Output path, defaults to a file under the export directory.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <user id>",
	Short: "Export a user's records to a file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var ct transform.ContentType
		if *exportType != "" {
			parsed, err := transform.ParseContentType(*exportType)
			if err != nil {
				serviceutil.Fatal("parse content type", err)
			}
			ct = parsed
		}

		_, service, cleanup := openServices()
		defer cleanup()

		path := *exportOut
		if path == "" {
			path = service.ExportPath(args[0], ct, *exportFormat)
		}

		var count int
		var err error
		switch *exportFormat {
		case "csv":
			count, err = service.ExportCSV(cmd.Context(), args[0], ct, path)
		case "jsonl":
			count, err = service.ExportJSONL(cmd.Context(), args[0], ct, path)
		default:
			err = errors.New("expected csv or jsonl")
			serviceutil.Fatal("parse format", err)
		}
		if err != nil {
			serviceutil.Fatal("export records", err)
		}

		fmt.Printf("wrote %d records to %s\n", count, path)
	},
}
