package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	modelfold "github.com/modelfold/modelfold"
	"github.com/modelfold/modelfold/cli"
	"github.com/modelfold/modelfold/pkg/sdk"
)

const (
	defCoordinatorURL  = "http://localhost:7070"
	defTLSVerification = false
	configFile         = "config.toml"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelfold-cli",
		Short: "ModelFold CLI",
		Long:  `ModelFold CLI is a command line interface for interacting with the training coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  defCoordinatorURL,
				TLSVerification: defTLSVerification,
			}
			if _, err := os.Stat(configFile); err == nil {
				if cfg, err := modelfold.LoadConfig(configFile); err == nil && cfg.Coordinator.URL != "" {
					sdkConf.CoordinatorURL = cfg.Coordinator.URL
				}
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetCoordinatorSDK(s)
		},
	}

	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewGradientsCmd())
	rootCmd.AddCommand(cli.NewSessionsCmd())
	rootCmd.AddCommand(cli.NewContributorsCmd())
	rootCmd.AddCommand(cli.NewProvisionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
