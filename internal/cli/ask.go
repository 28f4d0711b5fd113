package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed course materials",
	Long: `Ask a one-shot question and get an LLM answer grounded in the
indexed course materials.

Examples:
  lectern ask "What is MCP?"
  lectern ask "What does lesson 3 of the computer-use course cover?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rag, err := getRAG(ctx)
	if err != nil {
		return err
	}

	resp := rag.Query(ctx, args[0], "")

	fmt.Println(resp.Answer)

	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println(defaultTheme.hintStyle().Render("Sources:"))
		for _, src := range resp.Sources {
			line := "  " + src.Label()
			if src.Link != nil {
				line += "  " + *src.Link
			}
			fmt.Println(defaultTheme.hintStyle().Render(line))
		}
	}
	return nil
}
