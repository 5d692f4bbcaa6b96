package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	listenAddr string
)

func main() {
	root := &cobra.Command{
		Use:   "scpisim",
		Short: "SCPI instrument simulator",
		Long: "scpisim exposes a simulated bench instrument over a raw TCP\n" +
			"socket or stdin/stdout, speaking SCPI-99 with the IEEE 488.2\n" +
			"common command set.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to TOML configuration file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Listen for SCPI sessions on a TCP socket",
		RunE:  runServe,
	}
	serve.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")

	stdio := &cobra.Command{
		Use:   "stdio",
		Short: "Run a single SCPI session on stdin/stdout",
		RunE:  runStdio,
	}

	root.AddCommand(serve, stdio)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
