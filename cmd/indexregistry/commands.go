/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/indexregistry"
	"github.com/suparena/indexregistry/backend"
	"github.com/suparena/indexregistry/config"
)

// newClient is replaced in tests to share one in-memory backend across commands.
var newClient = backend.New

type rootOptions struct {
	configFile string
	section    string
	backend    string
	stderr     io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{stderr: os.Stderr}

	root := &cobra.Command{
		Use:          "indexregistry",
		Short:        "Manage registry sections stored in a search index",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVarP(&opts.section, "section", "s", "", "Registry section (index) name")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Backend override: elasticsearch, opensearch, dynamodb or memory")

	root.AddCommand(
		newRegisterCmd(opts),
		newReplaceCmd(opts),
		newUnregisterCmd(opts),
		newExistsCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newDestroyCmd(opts),
		newVersionCmd(),
	)
	return root
}

// open loads configuration and initiates the registry for --section.
func (o *rootOptions) open(ctx context.Context) (*indexregistry.Registry[json.RawMessage], error) {
	if strings.TrimSpace(o.section) == "" {
		return nil, fmt.Errorf("--section is required")
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: level}))

	client, err := newClient(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("backend ready", "backend", cfg.Backend)

	return indexregistry.New[json.RawMessage](ctx, client, o.section, indexregistry.WithLogger(logger))
}

// readValue takes the JSON value from args[1], or from stdin when absent or "-".
func readValue(cmd *cobra.Command, args []string) (json.RawMessage, error) {
	var data []byte
	if len(args) > 1 && args[1] != "-" {
		data = []byte(args[1])
	} else {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read value from stdin: %w", err)
		}
		data = b
	}

	data = []byte(strings.TrimSpace(string(data)))
	if !json.Valid(data) {
		return nil, fmt.Errorf("value is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <id> [json|-]",
		Short: "Register a new identifier",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args)
			if err != nil {
				return err
			}
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Register(cmd.Context(), args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s/%s\n", reg.Section(), args[0])
			return nil
		},
	}
}

func newReplaceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <id> [json|-]",
		Short: "Replace the value of a registered identifier",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args)
			if err != nil {
				return err
			}
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Replace(cmd.Context(), args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replaced %s/%s\n", reg.Section(), args[0])
			return nil
		},
	}
}

func newUnregisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <id>",
		Short: "Remove a registered identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Unregister(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unregistered %s/%s\n", reg.Section(), args[0])
			return nil
		},
	}
}

func newExistsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <id>",
		Short: "Print whether an identifier is registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := reg.IsRegistered(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print the value registered under an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			value, err := reg.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every registered identifier and value of the section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			content, err := reg.Content(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), content)
		},
	}
}

func newDestroyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete the section's index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := reg.Destroy(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "destroyed %s\n", reg.Section())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := indexregistry.GetVersionInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "indexregistry version %s\n", info.Version)
			fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		},
	}
}
