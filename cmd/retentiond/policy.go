package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/cli"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
)

var policyFlags struct {
	dataType string
	enabled  string
	output   string
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and validate retention policies",
	Long: `Inspect and validate retention policies.

Subcommands:
  list     - List policies from the configured store
  show     - Show one policy in full detail
  validate - Validate a seed file without writing anything

Examples:
  # List all policies
  retentiond policy list

  # List enabled telemetry policies
  retentiond policy list --data-type telemetry --enabled true

  # Show one policy by ID or name
  retentiond policy show telemetry-90d

  # Validate a seed file before deploying it
  retentiond policy validate policies.yaml`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retention policies",
	Long: `List retention policies from the configured store.

Examples:
  # List all policies
  retentiond policy list

  # List disabled policies as JSON
  retentiond policy list --enabled false --output json`,
	RunE: listPolicies,
}

var policyShowCmd = &cobra.Command{
	Use:   "show <id-or-name>",
	Short: "Show one policy in detail",
	Long: `Show one policy in full detail, including filters and lifetime
execution counters. The argument may be a policy ID or its unique name.

Examples:
  # Show by name
  retentiond policy show telemetry-90d

  # Show by ID as JSON
  retentiond policy show 4f9d6a2e-... --output json`,
	Args: cobra.ExactArgs(1),
	RunE: showPolicy,
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate <seed-file>",
	Short: "Validate a policy seed file",
	Long: `Validate a policy seed file without writing anything.

Every policy in the file is checked against the same rules the store
enforces, and duplicate names within the file are reported. The command
exits non-zero if any policy is invalid.

Examples:
  # Validate before deploying
  retentiond policy validate policies.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: validatePolicies,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd, policyShowCmd, policyValidateCmd)

	policyCmd.PersistentFlags().StringVarP(&policyFlags.output, "output", "o", "text", "output format: text, json")

	policyListCmd.Flags().StringVar(&policyFlags.dataType, "data-type", "", "filter by data type")
	policyListCmd.Flags().StringVar(&policyFlags.enabled, "enabled", "", "filter by enabled flag (true or false)")
}

func listPolicies(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntimeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer store.Close()

	filter := &retention.PolicyFilter{DataType: policyFlags.dataType}
	if policyFlags.enabled != "" {
		b, err := strconv.ParseBool(policyFlags.enabled)
		if err != nil {
			return cli.NewConfigError("enabled", "must be true or false")
		}
		filter.Enabled = &b
	}

	list, err := store.List(context.Background(), filter)
	if err != nil {
		return cli.NewCommandError("policy list", err)
	}

	if policyFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, list)
	}

	if len(list) == 0 {
		fmt.Println("No policies found")
		return nil
	}

	table := cli.NewTable(os.Stdout, "ID", "NAME", "DATA TYPE", "DAYS", "SCHEDULE", "ARCHIVE", "ENABLED", "LAST STATUS")
	for _, p := range list {
		archiveCol := "-"
		if p.ArchiveBeforeDelete && p.Archive != nil {
			archiveCol = p.Archive.Compression
		}
		last := p.LastExecutionStatus
		if last == "" {
			last = "-"
		}
		table.Row(
			shortID(p.ID),
			p.Name,
			p.DataType,
			strconv.Itoa(p.RetentionDays),
			p.Schedule,
			archiveCol,
			strconv.FormatBool(p.Enabled),
			last,
		)
	}
	return table.Flush()
}

func showPolicy(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntimeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer store.Close()

	p, err := resolvePolicy(context.Background(), store, args[0])
	if err != nil {
		return cli.NewCommandError("policy show", err)
	}

	if policyFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, p)
	}

	printPolicy(p)
	return nil
}

func validatePolicies(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewCommandError("policy validate", err)
	}

	seed, err := policy.ParseSeed(data)
	if err != nil {
		return cli.NewCommandError("policy validate", err)
	}

	if len(seed.Policies) == 0 {
		fmt.Println("No policies in seed file")
		return nil
	}

	seen := make(map[string]int)
	invalid := 0
	for i, p := range seed.Policies {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		if err := policy.Validate(p); err != nil {
			invalid++
			fmt.Printf("✗ %s: %v\n", name, err)
			continue
		}
		if prev, dup := seen[p.Name]; dup {
			invalid++
			fmt.Printf("✗ %s: duplicate of entry #%d\n", name, prev+1)
			continue
		}
		seen[p.Name] = i
		fmt.Printf("✓ %s\n", name)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d policies invalid", invalid, len(seed.Policies))
	}
	fmt.Printf("\n%d policies valid\n", len(seed.Policies))
	return nil
}

// Helper functions

// resolvePolicy looks up a policy by ID first, then by name, so commands
// accept either form.
func resolvePolicy(ctx context.Context, store policy.Store, idOrName string) (*retention.Policy, error) {
	p, err := store.Get(ctx, idOrName)
	if err == nil {
		return p, nil
	}
	var nfe *retention.NotFoundError
	if !errors.As(err, &nfe) {
		return nil, err
	}
	return store.GetByName(ctx, idOrName)
}

func printPolicy(p *retention.Policy) {
	fmt.Printf("Policy: %s\n", p.Name)
	fmt.Printf("  ID:              %s\n", p.ID)
	if p.Description != "" {
		fmt.Printf("  Description:     %s\n", p.Description)
	}
	fmt.Printf("  Data Type:       %s\n", p.DataType)
	fmt.Printf("  Retention:       %d days\n", p.RetentionDays)
	fmt.Printf("  Schedule:        %s\n", p.Schedule)
	fmt.Printf("  Enabled:         %t\n", p.Enabled)
	if p.ArchiveBeforeDelete && p.Archive != nil {
		fmt.Printf("  Archive:         %s (%s)\n", p.Archive.Destination, p.Archive.Compression)
	} else {
		fmt.Printf("  Archive:         disabled\n")
	}
	if len(p.Filters) > 0 {
		keys := make([]string, 0, len(p.Filters))
		for k := range p.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("  Filters:\n")
		for _, k := range keys {
			fmt.Printf("    %s: %s\n", k, strings.Join(p.Filters[k], ", "))
		}
	}
	fmt.Printf("  Created:         %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Updated:         %s\n", p.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("  Executions:      %d\n", p.ExecutionCount)
	fmt.Printf("  Deleted (life):  %d records\n", p.TotalRecordsDeleted)
	fmt.Printf("  Archived (life): %d records\n", p.TotalRecordsArchived)
	if p.LastExecutedAt != nil {
		fmt.Printf("  Last Execution:  %s (%s)\n", p.LastExecutedAt.Format(time.RFC3339), p.LastExecutionStatus)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
