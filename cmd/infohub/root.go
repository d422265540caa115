package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"infohub/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "infohub",
	Short: "InfoHub client core tools",
	Long:  "Command line access to the InfoHub address resolver, catalog and loyalty tiers.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("backend"); v != "" {
			loaded.BackendURL = v
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", os.Getenv("INFOHUB_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().String("backend", "", "Backend API base URL")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log requests to stderr")
}

func newLogger(cmd *cobra.Command) *log.Logger {
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		return log.New(cmd.ErrOrStderr(), "[infohub] ", log.LstdFlags|log.LUTC)
	}
	return log.New(io.Discard, "", 0)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
