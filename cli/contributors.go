package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewContributorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributors [register|view|award|leaderboard]",
		Short: "Contributors manager",
		Long:  `Register contributors, inspect accounts and award reputation.`,
	}

	registerCmd := &cobra.Command{
		Use:   "register <identity>",
		Short: "Register contributor",
		Long:  `Register a contributor identity. Registering twice is a no-op.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			c, err := csdk.RegisterContributor(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <identity>",
		Short: "View contributor",
		Long:  `View contributor reputation and contribution counters.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			c, err := csdk.GetContributor(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}

	awardCmd := &cobra.Command{
		Use:   "award <identity> <amount>",
		Short: "Award reputation",
		Long:  `Award reputation to a contributor. Admin only.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			c, err := csdk.AwardReputation(caller, args[0], amount)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}

	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Contributor leaderboard",
		Long:  `List contributors ranked by reputation.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := csdk.Leaderboard(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(registerCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(awardCmd)
	cmd.AddCommand(leaderboardCmd)

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
