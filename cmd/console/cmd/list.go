package cmd

import (
	"fmt"
	"strings"

	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/models"
	"github.com/testuser-console/internal/provider"
	"github.com/testuser-console/internal/terminal"

	"github.com/spf13/cobra"
)

const listWidth = 160

type listFlags struct {
	username string
	phone    string
	status   string
	page     int
	size     int
}

func newListCommand() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "按条件查询一页测试用户并输出表格",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := normalizeStatus(flags.status)
			if err != nil {
				return err
			}
			container, err := newContainer(true, func(cfg *config.Config) {
				if flags.size > 0 {
					cfg.Console.PageSize = flags.size
				}
				cfg.Console.LoadingFloorMS = 0
			})
			if err != nil {
				return err
			}
			defer container.Close()

			ctl, err := container.NewController(provider.ControllerPorts{})
			if err != nil {
				return err
			}
			ctl.SetForm(models.QueryForm{
				Username: strings.TrimSpace(flags.username),
				Phone:    strings.TrimSpace(flags.phone),
				Status:   status,
			})
			if flags.page > 1 {
				err = ctl.HandleCurrentChange(cmd.Context(), flags.page)
			} else {
				err = ctl.Search(cmd.Context())
			}
			if err != nil {
				return err
			}
			terminal.WriteTable(cmd.OutOrStdout(), ctl.Snapshot(), nil, listWidth)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.username, "username", "u", "", "用户名称，模糊匹配")
	fs.StringVar(&flags.phone, "phone", "", "手机号码，模糊匹配")
	fs.StringVarP(&flags.status, "status", "s", "all", "状态: 1 启用 / 0 停用 / all 全部")
	fs.IntVar(&flags.page, "page", 1, "页码")
	fs.IntVar(&flags.size, "size", 0, "每页条数，默认使用 console.page_size")
	return cmd
}

func normalizeStatus(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return "", nil
	case "1", "active":
		return "1", nil
	case "0", "inactive":
		return "0", nil
	default:
		return "", fmt.Errorf("status 只能是 1、0 或 all: %s", value)
	}
}
