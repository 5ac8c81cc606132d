package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	modelfold "github.com/modelfold/modelfold"
)

const configFile = "config.toml"

var errFailedToRegister = errors.New("failed to register admin contributor")

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision resources",
	Long:  `Interactively write a config.toml and register the admin contributor.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := modelfold.Config{
			Coordinator: modelfold.CoordinatorConfig{
				URL: "http://localhost:7070",
			},
			Broker: modelfold.BrokerConfig{
				URL: "tcp://localhost:1883",
			},
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Coordinator URL").
					Value(&cfg.Coordinator.URL),
				huh.NewInput().
					Title("Admin identity (wallet address)").
					Value(&cfg.Coordinator.Admin),
				huh.NewInput().
					Title("Contributor identity").
					Value(&cfg.Contributor.Identity),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("MQTT broker URL").
					Value(&cfg.Broker.URL),
				huh.NewInput().
					Title("MQTT username").
					Value(&cfg.Broker.Username),
				huh.NewInput().
					Title("MQTT password").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.Broker.Password),
			),
		)

		if err := form.Run(); err != nil {
			logErrorCmd(*cmd, err)

			return
		}

		if err := modelfold.SaveConfig(configFile, &cfg); err != nil {
			logErrorCmd(*cmd, err)

			return
		}
		logSuccessCmd(*cmd, fmt.Sprintf("Successfully created %s", configFile))

		if cfg.Coordinator.Admin != "" {
			if _, err := csdk.RegisterContributor(cfg.Coordinator.Admin); err != nil {
				logErrorCmd(*cmd, errors.Join(errFailedToRegister, err))

				return
			}
			logSuccessCmd(*cmd, "Successfully registered admin contributor")
		}

		logOKCmd(*cmd)
	},
}

func NewProvisionCmd() *cobra.Command {
	return provisionCmd
}
