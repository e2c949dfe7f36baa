package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/defaults"
	"github.com/NVIDIA/gitops-portal/pkg/manifest"
	"github.com/NVIDIA/gitops-portal/pkg/portal"
	"github.com/NVIDIA/gitops-portal/pkg/serializer"
)

// requestFlags describe one deployment; shared by render and submit.
func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Request file (JSON or YAML); flags override its values",
		},
		&cli.StringFlag{
			Name:    "app",
			Aliases: []string{"a"},
			Usage:   "Application name (DNS-1123 label)",
		},
		&cli.StringFlag{
			Name:  "image",
			Usage: "Full image reference; use --repository and --tag to pick from the registry instead",
		},
		&cli.StringFlag{
			Name:  "repository",
			Usage: "Registry repository to deploy",
		},
		&cli.StringFlag{
			Name:  "tag",
			Usage: fmt.Sprintf("Repository tag (default: %s)", defaults.FallbackTag),
		},
		&cli.IntFlag{
			Name:  "replicas",
			Usage: fmt.Sprintf("Replica count, %d to %d (default: %d)", defaults.MinReplicas, defaults.MaxReplicas, defaults.MinReplicas),
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Ingress host (default: the application name)",
		},
	}
}

// parseRequest builds a portal.Request from --file and the request flags.
func parseRequest(cmd *cli.Command) (portal.Request, error) {
	var req portal.Request
	if path := cmd.String("file"); path != "" {
		if err := serializer.DecodeFile(path, &req); err != nil {
			return req, fmt.Errorf("failed to load request from %q: %w", path, err)
		}
	}

	if cmd.IsSet("app") {
		req.AppName = cmd.String("app")
	}
	if cmd.IsSet("image") {
		req.Image = cmd.String("image")
	}
	if cmd.IsSet("replicas") {
		req.Replicas = int32(cmd.Int("replicas")) //nolint:gosec // range checked by Validate
	}
	if cmd.IsSet("host") {
		req.Host = cmd.String("host")
	}
	if cmd.IsSet("repository") {
		req.Selection = &manifest.ImageSelection{
			Repository: cmd.String("repository"),
			Tag:        cmd.String("tag"),
		}
	}
	if cmd.IsSet("title") {
		req.Title = cmd.String("title")
	}
	if cmd.IsSet("body") {
		req.Body = cmd.String("body")
	}
	if cmd.IsSet("base-branch") {
		req.BaseBranch = cmd.String("base-branch")
	}

	if req.AppName == "" {
		return req, fmt.Errorf("--app is required")
	}
	return req, nil
}

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render the Kubernetes manifests for a deployment",
		Description: `Renders the Deployment, Service, Ingress and Kustomization documents for one
application without touching the Git host.

With --dir the documents are written to {dir}/apps/{app}/, matching the layout
of the GitOps repository. Otherwise they are printed keyed by that path.

Only --repository needs the registry settings from the configuration file.`,
		Flags: append(requestFlags(),
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Write the documents under this directory instead of printing them",
			},
			outputFlag(),
			formatFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := parseRequest(cmd)
			if err != nil {
				return err
			}

			var reg config.RegistryConfig
			if req.Selection != nil {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				reg = cfg.Registry
			}

			set, dr, err := portal.New(reg, nil, nil).Render(req)
			if err != nil {
				return err
			}

			if dir := cmd.String("dir"); dir != "" {
				return writeManifests(dir, dr.AppName, set)
			}

			files := make(map[string]string, set.Len())
			for _, f := range set.Paths(dr.AppName) {
				files[f.Name] = f.Content
			}
			return writeOutput(ctx, cmd, portal.ManifestsResponse{
				AppName: dr.AppName,
				Image:   dr.Image,
				Files:   files,
			})
		},
	}
}

func writeManifests(dir, app string, set *manifest.ManifestSet) error {
	for _, f := range set.Paths(app) {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil { //nolint:gosec // manifests are not secret
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		slog.Debug("manifest written", "path", path)
	}
	return nil
}
