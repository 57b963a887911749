package cmd

import (
	"github.com/spf13/cobra"
)

func newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:          "tui",
		Short:        "交互式终端视图",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	container, err := newContainer(true, nil)
	if err != nil {
		return err
	}
	defer container.Close()

	session, err := container.NewTerminalSession(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return session.Run(cmd.Context())
}
