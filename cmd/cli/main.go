package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"supplymatch/adapters/postgres"
	"supplymatch/adapters/ruleio"
	"supplymatch/app"
	"supplymatch/domain/core"
	"supplymatch/domain/supply"
	"supplymatch/internal/config"
	"supplymatch/internal/container"
	"supplymatch/internal/errors"
	"supplymatch/internal/graph"
	"supplymatch/internal/lifecycle"
	"supplymatch/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "supplymatch",
		Short: "Capability matching and supply-tree scheduling",
	}

	rootCmd.AddCommand(
		newMatchCmd(),
		newRulesCmd(),
		newSolutionsCmd(),
		newScheduleCmd(),
		newHierarchyCmd(),
		newReportCmd(),
		newCleanupCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		err = errors.FromDomain(err)
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// bootstrap loads config, builds the container, fills the registry, and
// connects the database when one is configured.
func bootstrap(ctx context.Context) (*container.Container, error) {
	// No .env file is fine; the system environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := c.LoadRules(); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	if cfg.Database.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

func newMatchCmd() *cobra.Command {
	var domain string
	var capabilities []string
	var directOnly bool
	var asJSON bool
	var save bool

	cmd := &cobra.Command{
		Use:   "match [requirements...]",
		Short: "Match requirements against capabilities",
		Long: `Score every requirement against every capability through the layered
match pipeline.

Example: supplymatch match flour butter --cap "all purpose flour" --cap margarine --domain bakery`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			run, err := c.MatchService.Run(cmd.Context(), app.MatchRequest{
				Domain:       core.Domain(domain),
				Requirements: args,
				Capabilities: capabilities,
				DirectOnly:   directOnly,
			})
			if err != nil {
				return err
			}

			if save {
				sol, err := c.SolutionService.Build(cmd.Context(), nodesFromRun(run), nil, run.Mode)
				if err != nil {
					return err
				}
				fmt.Printf("Saved solution %s\n", sol.ID)
			}

			if asJSON {
				return printJSON(run)
			}
			printRun(run)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Rule domain (defaults to general)")
	cmd.Flags().StringArrayVar(&capabilities, "cap", nil, "Capability to match against (repeatable)")
	cmd.Flags().BoolVar(&directOnly, "direct-only", false, "Use only direct string comparison")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON results")
	cmd.Flags().BoolVar(&save, "save", false, "Store matched pairs as a solution")
	cmd.MarkFlagRequired("cap")

	return cmd
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and manage capability rules",
	}
	cmd.AddCommand(newRulesListCmd(), newRulesImportCmd(), newRulesCompareCmd(), newRulesExportCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			domains := c.Registry.Domains()
			if domain != "" {
				domains = []core.Domain{core.Domain(domain)}
			}
			for _, d := range domains {
				set, err := c.Registry.RuleSet(d)
				if err != nil {
					return err
				}
				fp, err := ruleio.Fingerprint(set)
				if err != nil {
					return err
				}
				fmt.Printf("%s (%d rules, fingerprint %s)\n", d, set.Len(), fp.Short())
				for _, id := range set.RuleIDs() {
					r := set.Rules[id]
					fmt.Printf("  %-24s %s -> %s (%.2f)\n", r.ID, strings.Join(r.SatisfiesRequirements, ", "), r.Capability, r.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Limit to one domain")
	return cmd
}

func newRulesImportCmd() *cobra.Command {
	var replace bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import rules from a YAML/JSON file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			reader := ruleio.NewReader(args[0], c.Logger)
			if dryRun {
				diffs, skipped, err := c.RuleService.Preview(reader)
				if err != nil {
					return err
				}
				for domain, diff := range diffs {
					fmt.Printf("%s: +%d added, ~%d updated, -%d deleted\n", domain, len(diff.Added), len(diff.Updated), len(diff.Deleted))
				}
				reportSkipped(skipped)
				return nil
			}

			imported, err := c.RuleService.ImportFrom(reader, !replace)
			if err != nil {
				return err
			}
			added, updated := imported.Total()
			fmt.Printf("Imported %d added, %d updated across %d domain(s)\n", added, updated, len(imported.Domains))
			reportSkipped(imported.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace each domain's rule set instead of merging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without importing")
	return cmd
}

func newRulesCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [path]",
		Short: "Diff a rule file against the loaded rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			diffs, skipped, err := c.RuleService.Preview(ruleio.NewReader(args[0], c.Logger))
			if err != nil {
				return err
			}
			for domain, diff := range diffs {
				if diff.Empty() {
					fmt.Printf("%s: no changes\n", domain)
					continue
				}
				for _, id := range diff.Added {
					fmt.Printf("%s: + %s\n", domain, id)
				}
				for _, id := range diff.Updated {
					fmt.Printf("%s: ~ %s\n", domain, id)
				}
				for _, id := range diff.Deleted {
					fmt.Printf("%s: - %s\n", domain, id)
				}
			}
			reportSkipped(skipped)
			return nil
		},
	}
}

func newRulesExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [domain]",
		Short: "Export a domain's rules to YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			set, err := c.RuleService.Export(core.Domain(args[0]))
			if err != nil {
				return err
			}
			if out != "" {
				return ruleio.WriteFile(out, set)
			}
			data, err := ruleio.EncodeRuleSet(set, ruleio.FormatYAML)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write to a file instead of stdout")
	return cmd
}

func newSolutionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solutions",
		Short: "Inspect stored solutions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored solutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			solutions, err := c.SolutionService.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, sol := range solutions {
				summary := sol.ConfidenceSummary()
				expiry := "never"
				if sol.ExpiresAt != nil {
					expiry = sol.ExpiresAt.String()
				}
				fmt.Printf("%s  nodes=%d  mean=%.2f  created=%s  expires=%s\n", sol.ID, len(sol.Nodes), summary.Mean, sol.CreatedAt, expiry)
			}
			return nil
		},
	}

	var days int
	extend := &cobra.Command{
		Use:   "extend [id]",
		Short: "Extend a solution's TTL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := core.ParseSolutionID(args[0])
			if err != nil {
				return err
			}
			sol, err := c.SolutionService.ExtendTTL(cmd.Context(), id, days)
			if err != nil {
				return err
			}
			fmt.Printf("Solution %s now expires %s\n", sol.ID, sol.ExpiresAt)
			return nil
		},
	}
	extend.Flags().IntVar(&days, "days", 7, "Days to add to the TTL")

	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := core.ParseSolutionID(args[0])
			if err != nil {
				return err
			}
			return c.SolutionService.Delete(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, extend, del)
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [solution-id|file]",
		Short: "Compute the staged build order for a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			sol, err := loadSolution(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			stages, err := c.SolutionService.Schedule(sol)
			if err != nil {
				return err
			}
			for i, stage := range stages {
				names := make([]string, len(stage))
				for j, id := range stage {
					names[j] = nodeLabel(sol, id)
				}
				fmt.Printf("Stage %d: %s\n", i+1, strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func newHierarchyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy [solution-id|file]",
		Short: "Show a solution's component hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			sol, err := loadSolution(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			h := c.SolutionService.Hierarchy(sol)
			for _, root := range h.Roots {
				printTree(root, 0)
			}
			if len(h.Flagged) > 0 {
				fmt.Println("Flagged (broken parent links):")
				for _, id := range h.Flagged {
					fmt.Printf("  %s\n", nodeLabel(sol, id))
				}
			}
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [solution-id|file]",
		Short: "Render a solution report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			sol, err := loadSolution(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if asHTML {
				os.Stdout.Write(report.RenderHTML(sol))
				return nil
			}
			fmt.Print(report.RenderMarkdown(sol))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var maxAgeDays int
	var before string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale stored solutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			opts := lifecycle.CleanupOptions{DryRun: dryRun}
			if cmd.Flags().Changed("max-age-days") {
				opts.MaxAgeDays = &maxAgeDays
			}
			if before != "" {
				cutoff, err := time.Parse(time.RFC3339, before)
				if err != nil {
					return fmt.Errorf("invalid --before (use RFC3339): %w", err)
				}
				opts.Before = &cutoff
			}

			result, err := c.SolutionService.Cleanup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			verb := "Deleted"
			if result.DryRun {
				verb = "Would delete"
			}
			fmt.Printf("%s %d solution(s)\n", verb, result.Count)
			for _, id := range result.IDs {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", 30, "Remove solutions older than this many days")
	cmd.Flags().StringVar(&before, "before", "", "Remove solutions created before this RFC3339 time")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report without deleting")
	return cmd
}

// loadSolution accepts either a JSON file path or a stored solution id.
func loadSolution(ctx context.Context, c *container.Container, ref string) (*supply.Solution, error) {
	if _, err := os.Stat(ref); err == nil {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		var sol supply.Solution
		if err := json.Unmarshal(data, &sol); err != nil {
			return nil, fmt.Errorf("parsing solution file %s: %w", ref, err)
		}
		return &sol, nil
	}

	id, err := core.ParseSolutionID(ref)
	if err != nil {
		return nil, err
	}
	return c.SolutionService.Get(ctx, id)
}

func nodesFromRun(run *app.MatchRun) []supply.TreeNode {
	matched := run.Matched()
	nodes := make([]supply.TreeNode, len(matched))
	for i, res := range matched {
		nodes[i] = supply.TreeNode{
			ID:            core.NodeID(core.NewID()),
			ComponentName: res.Requirement,
			Requirement:   res.Requirement,
			Capability:    res.Capability,
			Confidence:    res.Confidence,
		}
	}
	return nodes
}

func printRun(run *app.MatchRun) {
	fmt.Printf("Domain %s, mode %s, %d layer(s), %s\n\n", run.Domain, run.Mode, len(run.Layers), run.Duration.Round(time.Millisecond))
	for _, res := range run.Results {
		status := " "
		if res.Matched {
			status = "*"
		}
		fmt.Printf("%s %-30s -> %-30s %.2f %s/%s\n", status, res.Requirement, res.Capability, res.Confidence, res.Layer, res.Quality)
	}
}

func printTree(node *graph.ComponentNode, depth int) {
	fmt.Printf("%s%s (%.2f)\n", strings.Repeat("  ", depth), node.Node.GroupKey(), node.Node.Confidence)
	for _, child := range node.Children {
		printTree(child, depth+1)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func reportSkipped(issues []core.ValidationIssue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", issue.Error())
	}
}

func nodeLabel(sol *supply.Solution, id core.NodeID) string {
	if n, ok := sol.Node(id); ok {
		return n.GroupKey()
	}
	return id.String()
}
