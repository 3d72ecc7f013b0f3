package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/driveauth/driveauth/gin"
)

func init() {
	RootCmd.AddCommand(&ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:   "serve",
	Short: "Start the authorization server",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		handler := gin.New(authService, eventRouter, logger)

		addr := cfg.Server.Addr
		if addr == "" {
			addr = ":8080"
		}

		logger.Printf("listening on %s", addr)
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Fatal("server stopped:", err)
		}
	},
}
