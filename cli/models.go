package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modelfold/modelfold/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
	caller    string
)

var csdk sdk.SDK

func SetCoordinatorSDK(s sdk.SDK) {
	csdk = s
}

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [create|view|list|versions|advance|finalize|aggregate]",
		Short: "Models manager",
		Long:  `Create and inspect model lineages, advance, finalize and aggregate versions.`,
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <weights_ref>",
		Short: "Create model",
		Long: `Create a model lineage whose initial weights blob is already stored.

Examples:
  # Create a model owned by the caller wallet
  modelfold-cli models create mnist-classifier bafy...weights --caller=0xWALLET`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := csdk.CreateModel(sdk.Model{
				Name:  args[0],
				Owner: caller,
			}, args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View model",
		Long:  `View model.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := csdk.GetModel(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List models",
		Long:  `List models.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := csdk.ListModels(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version <model_id> [<version>|latest]",
		Short: "View model version",
		Long:  `View one version of a model, or the latest.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if args[1] == "latest" {
				v, err := csdk.LatestModelVersion(args[0])
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, v)

				return
			}

			n, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			v, err := csdk.GetModelVersion(args[0], n)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v)
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance <model_id>",
		Short: "Advance model version",
		Long:  `Open the next version of a lineage whose latest version is finalized.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			v, err := csdk.AdvanceModelVersion(args[0], caller)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v)
		},
	}

	finalizeCmd := &cobra.Command{
		Use:   "finalize <model_id> <version> <weights_ref>",
		Short: "Finalize model version",
		Long:  `Swap in aggregated weights, drain pending gradients and credit contributors.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			n, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			v, err := csdk.FinalizeModelVersion(args[0], n, args[2], caller)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v)
		},
	}

	aggregateCmd := &cobra.Command{
		Use:   "aggregate <model_id> <version>",
		Short: "Aggregate model version",
		Long:  `Run federated averaging over the pending gradients and finalize with the result.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			n, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			v, err := csdk.AggregateModelVersion(args[0], n, caller)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, v)
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(advanceCmd)
	cmd.AddCommand(finalizeCmd)
	cmd.AddCommand(aggregateCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	cmd.PersistentFlags().StringVarP(
		&caller,
		"caller",
		"c",
		caller,
		"Caller identity (wallet address)",
	)

	return cmd
}
