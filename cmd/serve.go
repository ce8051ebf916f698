package cmd

import (
	"github.com/agentic-research/fsmap/internal/mcpserve"
	"github.com/agentic-research/fsmap/internal/walk"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve FSML mapping as an MCP tool over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		fs := walk.NewHostFS()
		tc, err := newToolchain(cfg, log.StandardLogger(), fs, !noExtract)
		if err != nil {
			return err
		}
		defer func() {
			if err := tc.Close(); err != nil {
				log.Warnf("%v", err)
			}
		}()

		engine := walk.NewEngine(tc.reg, walk.WithFS(fs), walk.WithHardLinks(!noHardLinks))
		log.Infof("fsmap %s serving MCP on stdio", version)
		return server.ServeStdio(mcpserve.New(engine, version))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
