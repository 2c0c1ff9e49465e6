package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
	"github.com/teemow/calresolve/internal/resolver"
	"github.com/teemow/calresolve/internal/server"
	"github.com/teemow/calresolve/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for the MCP tools.
The tools are registered as in "serve" and described from their
definitions, so the output always matches the implementation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolDoc is one documented tool.
type toolDoc struct {
	tool      mcp.Tool
	writeOnly bool
}

func runGenerateDocs(outputFile string) error {
	readOnlyTools, err := registeredTools(true)
	if err != nil {
		return err
	}
	allTools, err := registeredTools(false)
	if err != nil {
		return err
	}

	docs := make([]toolDoc, 0, len(allTools))
	for name, tool := range allTools {
		_, inReadOnly := readOnlyTools[name]
		docs = append(docs, toolDoc{tool: tool, writeOnly: !inReadOnly})
	}

	markdown := generateToolsMarkdown(docs)

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// registeredTools returns the tools "serve" registers in the given mode.
// Tool definitions need neither credentials nor a model.
func registeredTools(readOnly bool) (map[string]mcp.Tool, error) {
	noModel := generation.GeneratorFunc(func(context.Context, generation.Request) ([]byte, error) {
		return nil, generation.ErrNoStructuredOutput
	})
	cfg := resolver.DefaultConfig()
	cfg.ReadOnly = readOnly
	res := resolver.New(noModel, disambiguation.New(noModel, disambiguation.DefaultConfig()), cfg)

	sc, err := server.NewServerContext(context.Background(), res)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register calendar tools: %w", err)
	}

	tools := make(map[string]mcp.Tool)
	for name, st := range mcpSrv.ListTools() {
		tools[name] = st.Tool
	}
	return tools, nil
}

func generateToolsMarkdown(docs []toolDoc) string {
	sort.Slice(docs, func(i, j int) bool { return docs[i].tool.Name < docs[j].tool.Name })

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `calresolve serve`.\n\n")
	sb.WriteString("**Note:** This documentation is generated from the tool definitions.\n\n")

	sb.WriteString("## Modes\n\n")
	sb.WriteString("The server starts read-only: requests are interpreted but calendar changes are refused. ")
	sb.WriteString("Start it with `--yolo` to allow creating, moving and deleting events.\n\n")

	sb.WriteString("## Accounts\n\n")
	sb.WriteString("Every tool takes an optional `account` argument naming the Google account to use. ")
	sb.WriteString("Without it the `default` account is used. ")
	sb.WriteString("Store one token per account with `calresolve token import --account <name> --file <token.json>`.\n\n")

	sb.WriteString("## Tools\n\n")
	for _, doc := range docs {
		sb.WriteString(generateToolMarkdown(doc))
		sb.WriteString("\n")
	}
	return sb.String()
}

func generateToolMarkdown(doc toolDoc) string {
	tool := doc.tool

	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}
	if doc.writeOnly {
		sb.WriteString("*Only registered with `--yolo`.*\n\n")
	}

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, _ := tool.InputSchema.Properties[name].(map[string]any)
		propType, _ := prop["type"].(string)
		if propType == "" {
			propType = "any"
		}
		description, _ := prop["description"].(string)

		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, propType, required, strings.ReplaceAll(description, "|", "\\|"))
	}
	return sb.String()
}
