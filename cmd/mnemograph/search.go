package mnemograph

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemograph/mnemograph/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search memories and code entities",
	Long: `Search runs the full fusion pipeline for one query: intent
classification, strategy fan-out, merge, rank, filter, and pagination.
Results print as JSON on stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchLimit     int
	searchCursor    string
	searchProjects  []string
	searchLanguages []string
	searchDateFrom  string
	searchDateTo    string
	searchRelated   bool
	searchMemories  bool
	searchCode      bool
	searchGroupBy   string
	searchTimeout   time.Duration
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Page size (default 20)")
	searchCmd.Flags().StringVar(&searchCursor, "cursor", "", "Opaque cursor from a previous page")
	searchCmd.Flags().StringSliceVar(&searchProjects, "project", nil, "Restrict to project(s)")
	searchCmd.Flags().StringSliceVar(&searchLanguages, "language", nil, "Restrict code results to language(s)")
	searchCmd.Flags().StringVar(&searchDateFrom, "from", "", "Results on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchDateTo, "to", "", "Results on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchRelated, "related-only", false, "Keep only results with relationships")
	searchCmd.Flags().BoolVar(&searchMemories, "memories", false, "Include memory results")
	searchCmd.Flags().BoolVar(&searchCode, "code", false, "Include code results")
	searchCmd.Flags().StringVar(&searchGroupBy, "group-by", "", "Group results: session or project")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "Request timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()
	defer client.Close(context.Background())

	req := types.SearchRequest{
		Query: args[0],
		Filters: types.SearchFilters{
			Projects:         searchProjects,
			Languages:        searchLanguages,
			MustHaveRelation: searchRelated,
		},
		Options: types.SearchOptions{
			IncludeMemories: searchMemories,
			IncludeCode:     searchCode,
			GroupBySession:  strings.EqualFold(searchGroupBy, "session"),
			GroupByProject:  strings.EqualFold(searchGroupBy, "project"),
		},
		Pagination: types.Pagination{Cursor: searchCursor, Limit: searchLimit},
	}

	if req.Filters.DateFrom, err = parseDate(searchDateFrom); err != nil {
		return err
	}
	if req.Filters.DateTo, err = parseDate(searchDateTo); err != nil {
		return err
	}

	resp, err := client.Search(ctx, req, callerScope())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
