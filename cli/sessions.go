package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modelfold/modelfold/pkg/sdk"
)

var (
	sessionEpochs       uint64  = 10
	sessionBatchSize    uint64  = 32
	sessionLearningRate float64 = 0.01
	sessionOptimizer            = "adam"
	sessionDatasetRef   string
)

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [start|view|list|pause|resume|stop|fail|epoch]",
		Short: "Sessions manager",
		Long:  `Start, inspect and drive training sessions.`,
	}

	startCmd := &cobra.Command{
		Use:   "start <model_id>",
		Short: "Start session",
		Long: `Start a training session on a model. Only one session per model may
be live at a time.

Examples:
  modelfold-cli sessions start b1d10738... --epochs=20 --batch-size=64 --lr=0.005 --optimizer=sgd`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.StartSession(sdk.Session{
				ModelID: args[0],
				Config: sdk.TrainingConfig{
					Epochs:       sessionEpochs,
					BatchSize:    sessionBatchSize,
					LearningRate: sessionLearningRate,
					Optimizer:    sessionOptimizer,
					DatasetRef:   sessionDatasetRef,
				},
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	startCmd.Flags().Uint64Var(&sessionEpochs, "epochs", sessionEpochs, "Number of epochs")
	startCmd.Flags().Uint64Var(&sessionBatchSize, "batch-size", sessionBatchSize, "Batch size")
	startCmd.Flags().Float64Var(&sessionLearningRate, "lr", sessionLearningRate, "Learning rate")
	startCmd.Flags().StringVar(&sessionOptimizer, "optimizer", sessionOptimizer, "Optimizer (sgd|adam|rmsprop)")
	startCmd.Flags().StringVar(&sessionDatasetRef, "dataset", sessionDatasetRef, "Dataset content reference")

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View session",
		Long:  `View session state, epoch progress and metrics history.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.GetSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Long:  `List sessions.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := csdk.ListSessions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause session",
		Long:  `Pause session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.PauseSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume session",
		Long:  `Resume session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.ResumeSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop session",
		Long:  `Stop session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.StopSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	failCmd := &cobra.Command{
		Use:   "fail <id> <reason>",
		Short: "Fail session",
		Long:  `Mark a session as failed with a reason.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := csdk.FailSession(args[0], args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	epochCmd := &cobra.Command{
		Use:   "epoch <id> <loss> <accuracy>",
		Short: "Advance epoch",
		Long:  `Record one finished epoch with its loss and accuracy.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			loss, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			accuracy, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			s, err := csdk.AdvanceEpoch(args[0], loss, accuracy)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	cmd.AddCommand(startCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(pauseCmd)
	cmd.AddCommand(resumeCmd)
	cmd.AddCommand(stopCmd)
	cmd.AddCommand(failCmd)
	cmd.AddCommand(epochCmd)

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

	return cmd
}
