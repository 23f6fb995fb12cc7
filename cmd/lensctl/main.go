package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "lensctl",
		Short: "CLI client for the decoder service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Decoder service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token for authenticated calls")

	// decode subcommand
	var urlArg, addressArg, workArg string
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a rental listing by URL or address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if urlArg == "" && addressArg == "" {
				return fmt.Errorf("--url or --address required")
			}
			return runDecode(apiFlag, tokenFlag, urlArg, addressArg, workArg, os.Stdout)
		},
	}
	decodeCmd.Flags().StringVarP(&urlArg, "url", "u", "", "Listing page URL")
	decodeCmd.Flags().StringVarP(&addressArg, "address", "d", "", "Property address")
	decodeCmd.Flags().StringVarP(&workArg, "work", "w", "", "Work address for commute estimation")
	rootCmd.AddCommand(decodeCmd)

	// report subcommand
	reportCmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Fetch a published decoder report by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(reportCmd)

	// health subcommand
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
