package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func reposCmd() *cli.Command {
	return &cli.Command{
		Name:  "repos",
		Usage: "List repositories of the configured registry project",
		Description: `Lists repository names in the registry project. An unreachable registry
yields an empty list; the failure is logged at WARN level.`,
		Flags: []cli.Flag{outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, svc.Repositories(ctx))
		},
	}
}

func tagsCmd() *cli.Command {
	return &cli.Command{
		Name:      "tags",
		Usage:     "List tags of a repository, newest first",
		ArgsUsage: "REPOSITORY",
		Description: `Lists the tags of one repository sorted in descending order. An unreachable
registry yields the single tag "latest".`,
		Flags: []cli.Flag{outputFlag(), formatFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			tags, err := svc.Tags(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, tags)
		},
	}
}
