package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mahjongserver/cmd/mahjongserver/app"
	"mahjongserver/common/config"
	"mahjongserver/common/log"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mahjongserver",
	Short: "riichi mahjong game server",
	Long:  "riichi mahjong game server: room lobby, rule engine, and websocket transport in one process",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
			os.Exit(1)
		}
		log.InitLog(config.Conf.AppName, config.Conf.Log.Level)
		log.Info("mahjongserver: starting with config %s", configFile)

		if err := app.Run(context.Background()); err != nil {
			log.Error("mahjongserver: fatal error: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to the YAML config file")
	rootCmd.MarkFlagRequired("config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
