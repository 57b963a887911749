package cmd

import (
	"fmt"

	"github.com/testuser-console/internal/terminal"

	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "show <id>",
		Short:        "查看测试用户详情",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := newContainer(true, nil)
			if err != nil {
				return err
			}
			defer container.Close()

			res, err := container.Client.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := res.Err(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), terminal.FormatDetail(res.Data))
			return nil
		},
	}
}
