package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modelfold/modelfold/pkg/sdk"
)

func NewGradientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradients [submit|pending]",
		Short: "Gradients manager",
		Long:  `Submit gradient references and list pending gradients.`,
	}

	submitCmd := &cobra.Command{
		Use:   "submit <model_id> <version> <gradient_ref>",
		Short: "Submit gradient",
		Long: `Submit a gradient reference against a model version. The blob must
already be stored. Resubmitting the same reference reports Duplicate.

Examples:
  modelfold-cli gradients submit b1d10738... 1 bafy...grad --caller=0xWALLET`,
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
			g, err := csdk.SubmitGradient(sdk.Gradient{
				Contributor:  caller,
				ModelID:      args[0],
				ModelVersion: n,
				GradientRef:  args[2],
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, g)
		},
	}

	pendingCmd := &cobra.Command{
		Use:   "pending <model_id> <version>",
		Short: "List pending gradients",
		Long:  `List the not-yet-aggregated gradients of a model version.`,
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
			page, err := csdk.ListPendingGradients(args[0], n, defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(submitCmd)
	cmd.AddCommand(pendingCmd)

	cmd.PersistentFlags().StringVarP(
		&caller,
		"caller",
		"c",
		caller,
		"Caller identity (wallet address)",
	)

	return cmd
}
