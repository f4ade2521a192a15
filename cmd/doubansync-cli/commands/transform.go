package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/transform"
)

var transformType *string
var transformNoRepairs *bool
var transformNoValidation *bool
var transformPreserveRaw *bool

func init() {
	transformType = transformCmd.Flags().String("type", "books", "Content type of the input object.")
	transformNoRepairs = transformCmd.Flags().Bool("no-repairs", false, "Skip the repair pass.")
	transformNoValidation = transformCmd.Flags().Bool("no-validation", false, "Skip the validation pass.")
	transformPreserveRaw = transformCmd.Flags().Bool("preserve-raw", false, "Echo the raw input in the result.")
	rootCmd.AddCommand(transformCmd)
}

var transformCmd = &cobra.Command{
	Use:   "transform --type <content type> <path/to/raw.json>",
	Short: "Run a raw subject object through the transform pipeline.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ct, err := transform.ParseContentType(*transformType)
		if err != nil {
			serviceutil.Fatal("parse content type", err)
		}

		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read input", err)
		}
		var raw map[string]any
		err = json.Unmarshal(contents, &raw)
		if err != nil {
			serviceutil.Fatal("parse input", err)
		}

		res := transform.Transform(cmd.Context(), raw, ct, transform.Options{
			DisableRepairs:    *transformNoRepairs,
			DisableValidation: *transformNoValidation,
			PreserveRawData:   *transformPreserveRaw,
		})

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			serviceutil.Fatal("encode result", err)
		}
		fmt.Println(string(out))
	},
}
