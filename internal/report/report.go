// Package report renders solutions as markdown and HTML for operators.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"supplymatch/domain/core"
	"supplymatch/domain/supply"
	"supplymatch/internal/graph"
)

// RenderMarkdown produces a human-readable report for a solution: header,
// confidence summary, build stages, and the node table. Stage rendering is
// skipped with a note when the dependency graph is cyclic.
func RenderMarkdown(sol *supply.Solution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Solution %s\n\n", sol.ID)
	fmt.Fprintf(&b, "- Created: %s\n", sol.CreatedAt)
	if sol.ExpiresAt != nil {
		fmt.Fprintf(&b, "- Expires: %s\n", sol.ExpiresAt)
	}
	if sol.MatchMode != "" {
		fmt.Fprintf(&b, "- Match mode: %s\n", sol.MatchMode)
	}
	if len(sol.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(sol.Tags, ", "))
	}
	fmt.Fprintf(&b, "- Nodes: %d\n\n", len(sol.Nodes))

	writeConfidence(&b, sol.ConfidenceSummary())
	writeStages(&b, sol)
	writeNodes(&b, sol)
	writeHierarchy(&b, sol)

	return b.String()
}

// RenderHTML converts the markdown report to a standalone HTML fragment.
func RenderHTML(sol *supply.Solution) []byte {
	md := []byte(RenderMarkdown(sol))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}

func writeConfidence(b *strings.Builder, summary supply.ConfidenceSummary) {
	if summary.Count == 0 {
		return
	}
	b.WriteString("## Confidence\n\n")
	fmt.Fprintf(b, "| Mean | Median | Min | Max |\n")
	fmt.Fprintf(b, "|------|--------|-----|-----|\n")
	fmt.Fprintf(b, "| %.2f | %.2f | %.2f | %.2f |\n\n", summary.Mean, summary.Median, summary.Min, summary.Max)
}

func writeStages(b *strings.Builder, sol *supply.Solution) {
	g, err := graph.Build(sol.Nodes)
	if err != nil {
		fmt.Fprintf(b, "## Build Stages\n\n_Not schedulable: %v_\n\n", err)
		return
	}
	stages, err := graph.Schedule(g)
	if err != nil {
		fmt.Fprintf(b, "## Build Stages\n\n_Not schedulable: %v_\n\n", err)
		return
	}

	b.WriteString("## Build Stages\n\n")
	for i, stage := range stages {
		fmt.Fprintf(b, "%d. %s\n", i+1, joinNodeNames(sol, stage))
	}
	b.WriteString("\n")
}

func writeNodes(b *strings.Builder, sol *supply.Solution) {
	if len(sol.Nodes) == 0 {
		return
	}
	b.WriteString("## Nodes\n\n")
	b.WriteString("| Component | Requirement | Capability | Confidence |\n")
	b.WriteString("|-----------|-------------|------------|------------|\n")
	for _, n := range sol.Nodes {
		fmt.Fprintf(b, "| %s | %s | %s | %.2f |\n", n.GroupKey(), n.Requirement, n.Capability, n.Confidence)
	}
	b.WriteString("\n")
}

func writeHierarchy(b *strings.Builder, sol *supply.Solution) {
	h := graph.BuildHierarchy(sol)
	if len(h.Roots) == 0 {
		return
	}
	b.WriteString("## Hierarchy\n\n")
	for _, root := range h.Roots {
		writeTree(b, root, 0)
	}
	if len(h.Flagged) > 0 {
		b.WriteString("\nFlagged nodes (broken parent links):\n\n")
		for _, id := range h.Flagged {
			fmt.Fprintf(b, "- %s\n", nodeName(sol, id))
		}
	}
	b.WriteString("\n")
}

func writeTree(b *strings.Builder, node *graph.ComponentNode, depth int) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), node.Node.GroupKey())
	for _, child := range node.Children {
		writeTree(b, child, depth+1)
	}
}

func joinNodeNames(sol *supply.Solution, ids []core.NodeID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = nodeName(sol, id)
	}
	return strings.Join(names, ", ")
}

func nodeName(sol *supply.Solution, id core.NodeID) string {
	if n, ok := sol.Node(id); ok {
		return n.GroupKey()
	}
	return id.String()
}
