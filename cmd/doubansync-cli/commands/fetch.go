package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/serviceutil"
)

var fetchUser *string
var fetchOut *string

func init() {
	fetchUser = fetchCmd.Flags().String("user", "", "The user whose credential to fetch with.")
	fetchOut = fetchCmd.Flags().String("out", "", "Write the body to a file instead of stdout.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch --user <user id> <url>",
	Short: "Fetch a page with a stored credential and print the body.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		credentials, _, cleanup := openServices()
		defer cleanup()

		cred, err := credentials.GetCredential(cmd.Context(), *fetchUser)
		if err != nil {
			serviceutil.Fatal("load credential", err)
		}

		client, err := core.NewClient(core.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("create client", err)
		}
		body, err := client.Fetch(cmd.Context(), args[0], cred, nil)
		if err != nil {
			serviceutil.Fatal("fetch", err)
		}

		if *fetchOut != "" {
			err := os.WriteFile(*fetchOut, []byte(body), 0o644)
			if err != nil {
				serviceutil.Fatal("write output", err)
			}
			fmt.Println("wrote body to", *fetchOut)
			return
		}
		fmt.Println(body)
	},
}
