package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func submitCmd() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Render manifests and open a pull or merge request with them",
		Description: `Commits the rendered manifests under apps/{app}/ on a new deploy/{app}-{suffix}
branch of the GitOps repository and opens a pull request (GitHub) or merge
request (GitLab) against the base branch. Prints the request URL.

Failed submissions are not retried. Unless cleanup_on_failure is set, a branch
created before the failure is left in place.`,
		Flags: append(requestFlags(),
			&cli.StringFlag{
				Name:  "title",
				Usage: "Change request title (default: \"Deploy: {app}\")",
			},
			&cli.StringFlag{
				Name:  "body",
				Usage: "Change request description (default: deployment summary)",
			},
			&cli.StringFlag{
				Name:  "base-branch",
				Usage: "Target branch (default: the configured base branch)",
			},
			outputFlag(),
			formatFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := parseRequest(cmd)
			if err != nil {
				return err
			}

			svc, err := loadService(cmd)
			if err != nil {
				return err
			}

			res, err := svc.Submit(ctx, req)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}
