package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driveauth/driveauth"
)

func init() {
	PermCommand.AddCommand(&PermShowCommand)
	PermCommand.AddCommand(&PermGrantCommand)
	PermCommand.AddCommand(&PermRevokeCommand)
	RootCmd.AddCommand(&PermCommand)
}

var PermCommand = cobra.Command{
	Use:   "perm",
	Short: "Inspect and edit the permission tree",
	Long:  "",
}

var PermShowCommand = cobra.Command{
	Use:   "show [path]",
	Short: "Show the effective ACL at a path, or the whole stored tree",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		var out interface{}
		if len(args) == 1 {
			out = aclService.Effective(driveauth.ParsePath(args[0]))
		} else {
			out = aclService.Tree()
		}

		data, err := json.MarshalIndent(out, "", "    ")
		if err != nil {
			logger.Fatal("error marshalling:", err)
		}
		fmt.Println(string(data))
	},
}

// Grant and revoke here write to the store directly: running the CLI
// on the box is administrative access, there is no caller token to
// check.

var PermGrantCommand = cobra.Command{
	Use:   "grant <path> <level> <identity>",
	Short: "Grant a level at a path",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		path, level, ident := permArgs(args)
		if err := aclService.Grant(ident, path, level); err != nil {
			logger.Fatal("error granting:", err)
		}
		fmt.Println("granted")
	},
}

var PermRevokeCommand = cobra.Command{
	Use:   "revoke <path> <level> <identity>",
	Short: "Revoke a level at a path",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		path, level, ident := permArgs(args)
		if err := aclService.Revoke(ident, path, level); err != nil {
			logger.Fatal("error revoking:", err)
		}
		fmt.Println("revoked")
	},
}

func permArgs(args []string) (driveauth.Path, driveauth.Level, driveauth.Identity) {
	if len(args) != 3 {
		logger.Fatal("want 3 arguments: path, level, identity")
	}

	level, ok := driveauth.ParseLevel(args[1])
	if !ok {
		logger.Fatalf("unknown level %q", args[1])
	}

	return driveauth.ParsePath(args[0]), level, driveauth.Identity(args[2])
}
