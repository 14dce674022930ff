package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/parley/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		s.RegisterRoutes()

		addr := serveAddr
		if addr == "" {
			addr = s.Cfg.Addr
		}
		s.Start(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to APP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
