package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/testuser-console/internal/app"
	"github.com/testuser-console/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiBlue  = "\033[34m"
)

func newServeCommand() *cobra.Command {
	var host, port string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "启动 HTTP 接口",
		Long:         `serve 将列表控制器的全部操作以 /api/console 接口提供，状态变更通过 SSE 推送。`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != "" {
				cfg.Server.Port = port
			}
			printStartupBanner(cmd.ErrOrStderr(), cfg.Server.Addr(), cfg.API.BaseURL)

			if isWeakSecret(cfg.Server.AccessSecret) {
				if cfg.Server.Mode == "release" {
					return fmt.Errorf("server.access_secret 过弱或未配置，release 模式下拒绝启动")
				}
				logger.Warnw("serve_access_secret_weak", "hint", "接口未鉴权或密钥过弱，建议配置 server.access_secret")
			}
			if cfg.Server.Mode == "release" {
				gin.SetMode(gin.ReleaseMode)
			}

			return app.Run(app.Options{
				Config:  cfg,
				Logger:  logger.S(),
				Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&host, "host", "", "监听地址，覆盖 server.host")
	fs.StringVarP(&port, "port", "p", "", "监听端口，覆盖 server.port")
	return cmd
}

func printStartupBanner(w io.Writer, addr, upstream string) {
	fmt.Fprintln(w, ansiCyan+ansiBold+"testuser-console"+ansiReset+ansiDim+"  测试用户管理控制台"+ansiReset)
	fmt.Fprintln(w, ansiBlue+"• Listen:   http://"+addr+"/api/console"+ansiReset)
	fmt.Fprintln(w, ansiBlue+"• Upstream: "+upstream+ansiReset)
	fmt.Fprintln(w, ansiDim+"--------------------------------------------------------------"+ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
