package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/basiccleaning/internal/artifact"
)

// NewArtifactsCmd creates the artifacts command and its subcommands.
func NewArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage artifacts in the configured store",
		Long: `Manage artifacts in the configured store without running a cleaning step.

Examples:
  # Register a raw dataset
  basiccleaning artifacts put sample.csv --type raw_data --description "Raw listings"

  # Copy the latest cleaned version to the current directory
  basiccleaning artifacts get clean_sample.csv:latest -o clean_sample.csv

  # List artifacts, then the versions of one of them
  basiccleaning artifacts list
  basiccleaning artifacts history clean_sample.csv`,
	}

	cmd.AddCommand(newArtifactsPutCmd())
	cmd.AddCommand(newArtifactsGetCmd())
	cmd.AddCommand(newArtifactsListCmd())
	cmd.AddCommand(newArtifactsHistoryCmd())

	return cmd
}

func newArtifactsPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Publish a local file as a new artifact version",
		Args:  cobra.ExactArgs(1),
		RunE:  runArtifactsPutCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Artifact name (default: the file name)")
	cmd.Flags().StringP("type", "t", "", "Artifact type")
	cmd.Flags().StringP("description", "d", "", "Artifact description")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runArtifactsPutCmd(cmd *cobra.Command, args []string) error {
	path := args[0]

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	typ, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	desc, err := cmd.Flags().GetString("description")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store artifactStore) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		ref, err := store.Publish(ctx, path, artifact.Metadata{
			Name:        name,
			Type:        typ,
			Description: desc,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ref, ref.Digest)
		return nil
	})
}

func newArtifactsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <reference>",
		Short: "Materialize an artifact version as a local file",
		Long: `Materialize an artifact version and print the path of the local copy.

With -o, the version is also copied to the given path.`,
		Args: cobra.ExactArgs(1),
		RunE: runArtifactsGetCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Copy the artifact to this path")

	return cmd
}

func runArtifactsGetCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store artifactStore) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		path, err := store.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		if output != "" {
			if err := copyFile(path, output); err != nil {
				return err
			}
			path = output
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	})
}

func newArtifactsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts with their type and latest version",
		Args:  cobra.NoArgs,
		RunE:  runArtifactsListCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func runArtifactsListCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store artifactStore) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		summaries, err := store.Artifacts(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, summaries)
		}

		if len(summaries) == 0 {
			fmt.Fprintln(out, "No artifacts found")
			return nil
		}

		fmt.Fprintf(out, "Artifacts (%d):\n\n", len(summaries))
		fmt.Fprintf(out, "  %-30s  %-16s  %-7s  %s\n", "Name", "Type", "Latest", "Updated")
		for _, s := range summaries {
			fmt.Fprintf(out, "  %-30s  %-16s  v%-6d  %s\n",
				s.Name, s.Type, s.Latest, s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}

func newArtifactsHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "List every version of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE:  runArtifactsHistoryCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func runArtifactsHistoryCmd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := artifact.ValidateName(name); err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store artifactStore) error {
		ctx, stop := commandContext(cmd)
		defer stop()

		versions, err := store.History(ctx, name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, versions)
		}

		if len(versions) == 0 {
			fmt.Fprintf(out, "No versions found for %s\n", name)
			return nil
		}

		fmt.Fprintf(out, "History of %s (%d versions):\n\n", name, len(versions))
		fmt.Fprintf(out, "  %-7s  %-20s  %-10s  %s\n", "Version", "Created", "Size", "Digest")
		for _, v := range versions {
			fmt.Fprintf(out, "  v%-6d  %-20s  %-10d  %s\n",
				v.Version, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Size, v.Digest)
		}
		return nil
	})
}

// withStore loads the configuration, opens the store and passes it to fn.
func withStore(cmd *cobra.Command, fn func(artifactStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg)
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close artifact store", "error", err)
		}
	}()

	return fn(store)
}

// copyFile copies src to dst, creating dst's directory if needed.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // path returned by the store
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

