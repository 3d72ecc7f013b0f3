package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	TokenCommand.AddCommand(&TokenListCommand)
	TokenCommand.AddCommand(&TokenRevokeCommand)
	RootCmd.AddCommand(&TokenCommand)
}

var TokenCommand = cobra.Command{
	Use:   "token",
	Short: "Inspect and revoke issued tokens",
	Long:  "",
}

var TokenListCommand = cobra.Command{
	Use:   "list",
	Short: "List issued tokens",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		for bearer, record := range tokenService.List() {
			kind := "delegated"
			if record.IsIdentity() {
				kind = "identity"
			}
			fmt.Printf("%s\t%s\t%s\n", bearer, kind, record.Email)
			for path, scope := range record.Perms {
				fmt.Printf("\t%s\tread=%t write=%t manage=%t own=%t\n", path, scope.Read, scope.Write, scope.Manage, scope.Own)
			}
		}
	},
}

var TokenRevokeCommand = cobra.Command{
	Use:   "revoke",
	Short: "Revoke a token",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("revoke wants 1 argument: the token")
		}

		if err := tokenService.Revoke(args[0]); err != nil {
			logger.Fatal("error revoking token:", err)
		}
		fmt.Println("revoked")
	},
}
