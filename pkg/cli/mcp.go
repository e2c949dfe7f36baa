package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gitops-portal/pkg/mcp"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the portal as MCP tools over stdio",
		Description: `Starts a Model Context Protocol server on stdin/stdout exposing the tools
list_repositories, list_tags, render_manifests and create_change_request.
Logs go to stderr.`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			return mcp.New(svc, version).ServeStdio()
		},
	}
}
