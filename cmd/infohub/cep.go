package main

import (
	"github.com/spf13/cobra"

	"infohub/internal/address"
)

var cepCmd = &cobra.Command{
	Use:   "cep [postal-code]",
	Short: "Resolve a postal code to an address with coordinates",
	Args:  cobra.ExactArgs(1),
	RunE:  runCEP,
}

func init() {
	rootCmd.AddCommand(cepCmd)
}

func runCEP(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	resolver := address.NewResolver(
		address.NewViaCEP(cfg.PostalDirectoryURL, nil),
		address.NewProxyGeocoder(cfg.GeocoderURL, cfg.GeocodeRatePerSecond),
		logger,
		address.WithGeocodeTimeout(cfg.GeocodeTimeout),
	)
	addr, err := resolver.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), addr)
}
