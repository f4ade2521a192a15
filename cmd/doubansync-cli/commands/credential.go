package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/serviceutil"
)

func init() {
	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialCheckCmd)
	credentialCmd.AddCommand(credentialDelCmd)
	credentialCmd.AddCommand(credentialListCmd)
	rootCmd.AddCommand(credentialCmd)
}

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage stored douban session cookies.",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set <user id> <cookie>",
	Short: "Store the cookie header value for a user.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		credentials, _, cleanup := openServices()
		defer cleanup()

		err := credentials.SetCredential(cmd.Context(), args[0], core.Credential{Cookie: args[1]})
		if err != nil {
			serviceutil.Fatal("store credential", err)
		}
		fmt.Println("stored credential for", args[0])
	},
}

var credentialCheckCmd = &cobra.Command{
	Use:   "check <user id>",
	Short: "Probe whether the stored cookie still reaches the account.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, service, cleanup := openServices()
		defer cleanup()

		status, err := service.CheckCredential(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("check credential", err)
		}
		if status.Valid {
			fmt.Println("credential is valid")
			return
		}
		fmt.Println("credential is invalid:", status.Reason)
		os.Exit(1)
	},
}

var credentialDelCmd = &cobra.Command{
	Use:   "del <user id>",
	Short: "Delete a stored credential.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		credentials, _, cleanup := openServices()
		defer cleanup()

		err := credentials.DeleteCredential(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("delete credential", err)
		}
		fmt.Println("deleted credential for", args[0])
	},
}

var credentialListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users with stored credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		credentials, _, cleanup := openServices()
		defer cleanup()

		userIDs, err := credentials.ListUserIDs(cmd.Context())
		if err != nil {
			serviceutil.Fatal("list credentials", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"user id"})
		for _, userID := range userIDs {
			t.AppendRow(table.Row{userID})
		}
		t.Render()
	},
}
