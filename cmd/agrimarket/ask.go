package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Example: `  agrimarket ask "2025년 7월 10일 옥수수 감정점수"
  agrimarket ask --json "corn 5000 bushels in tons"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		structuredOnly, _ := cmd.Flags().GetBool("no-search")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := open(cmd, structuredOnly)
		if err != nil {
			return err
		}
		defer a.Close()

		answer := a.Ask(cmd.Context(), strings.Join(args, " "))

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}

		fmt.Printf("[%s/%s]", answer.Kind, answer.Status)
		if answer.FallbackFrom != "" {
			fmt.Printf(" (fallback from %s)", answer.FallbackFrom)
		}
		if answer.SourceSpan != nil {
			fmt.Printf(" data: %s", answer.SourceSpan)
		}
		fmt.Printf("\n\n%s\n", answer.Payload)
		for _, note := range answer.Notes {
			fmt.Printf("\nNote: %s", note)
		}
		if len(answer.Notes) > 0 {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	askCmd.Flags().Bool("no-search", false, "skip loading the embedding model, document search is unavailable")
}
