package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogdistort/internal/artifact"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Inspect and verify classifier bundles",
}

var bundleInspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Load a bundle and describe it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		path := bundlePath(env, args)

		info, err := artifact.Inspect(path, artifact.Options{
			VerifyChecksums: env.cfg.Bundle.VerifyChecksums,
			Logger:          env.logger,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		model := info.ModelKind
		if info.Calibrated {
			model += " (calibrated)"
		}
		fmt.Fprintf(out, "Source:      %s\n", info.Source)
		fmt.Fprintf(out, "Name:        %s\n", info.Name)
		if info.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", info.Description)
		}
		fmt.Fprintf(out, "Format:      %s\n", info.FormatVersion)
		fmt.Fprintf(out, "Model:       %s\n", model)
		fmt.Fprintf(out, "Confidence:  %s\n", info.Capability)
		fmt.Fprintf(out, "Features:    %d\n", info.Features)
		fmt.Fprintf(out, "Checksums:   %s\n", info.Checksums)
		fmt.Fprintln(out)

		fmt.Fprintf(out, "%-6s  %s\n", "Class", "Label")
		fmt.Fprintln(out, strings.Repeat("─", 40))
		for _, id := range info.Classes {
			label, ok := info.Labels[id]
			if !ok {
				label = "(no label)"
			}
			fmt.Fprintf(out, "%-6d  %s\n", id, label)
		}
		if extra := extraLabels(info); len(extra) > 0 {
			fmt.Fprintf(out, "\n%d labels without a class: %v\n", len(extra), extra)
		}
		return nil
	},
}

var bundleVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Check a bundle's artifacts against its SHA256SUMS",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		allowMissing, _ := cmd.Flags().GetBool("allow-missing")

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		path := bundlePath(env, args)

		info, err := artifact.Inspect(path, artifact.Options{
			VerifyChecksums:  true,
			RequireChecksums: !allowMissing,
			Logger:           env.logger,
		})
		if err != nil {
			return err
		}

		if info.Checksums == artifact.ChecksumsAbsent {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: loads, no %s to verify\n", info.Source, artifact.ChecksumFile)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", info.Source)
		return nil
	},
}

func bundlePath(env *appEnv, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return env.cfg.Bundle.Path
}

// extraLabels lists label ids the model never predicts.
func extraLabels(info artifact.Info) []int {
	classes := make(map[int]bool, len(info.Classes))
	for _, id := range info.Classes {
		classes[id] = true
	}
	var extra []int
	for id := range info.Labels {
		if !classes[id] {
			extra = append(extra, id)
		}
	}
	sort.Ints(extra)
	return extra
}

func init() {
	bundleInspectCmd.Flags().Bool("json", false, "Print the description as JSON")
	bundleVerifyCmd.Flags().Bool("allow-missing", false, "Succeed when the bundle ships no SHA256SUMS")

	bundleCmd.AddCommand(bundleInspectCmd)
	bundleCmd.AddCommand(bundleVerifyCmd)
}
