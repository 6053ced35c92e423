package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okaines/scout/internal/search"
)

// newSearchCmd queries SearXNG directly, bypassing the model. Handy for
// checking the instance before starting a chat.
func newSearchCmd(a *app) *cobra.Command {
	var kind string
	var max int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the SearXNG backend directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			client := a.searchClient()
			ctx := cmd.Context()

			switch search.ParseKind(kind) {
			case search.KindImages:
				urls, err := client.SearchImages(ctx, query, max)
				if err != nil {
					return err
				}
				if len(urls) == 0 {
					fmt.Println("no direct image URLs found")
					return nil
				}
				for i, u := range urls {
					fmt.Printf("%d. %s\n", i+1, u)
				}
				return nil
			case search.KindWikipedia:
				results, err := client.SearchWikipedia(ctx, query, max)
				if err != nil {
					return err
				}
				printResults(results)
				return nil
			default:
				results, err := client.SearchGeneral(ctx, query, max)
				if err != nil {
					return err
				}
				printResults(results)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "general", "search kind (general, wikipedia, images)")
	cmd.Flags().IntVar(&max, "max", 5, "maximum number of results")
	return cmd
}

func printResults(results []search.Result) {
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Content != "" {
			fmt.Printf("   %s\n", r.Content)
		}
		if len(r.Engines) > 0 {
			fmt.Printf("   engines: %s\n", strings.Join(r.Engines, ", "))
		}
	}
}
