package search

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/types"
)

const noPreview = "No preview available"

// ToResultItem derives the unified display shape for one merged result.
func ToResultItem(result types.SearchResult) types.ResultItem {
	item := types.ResultItem{
		ID:            result.Entity.RecordID(),
		Score:         result.Score,
		MatchType:     result.MatchType,
		Highlights:    result.Highlights,
		Relationships: result.Relationships,
		Project:       resultProject(result.Entity),
	}

	switch r := result.Entity.(type) {
	case *types.MemoryRecord:
		item.Type = "memory"
		occurred := r.OccurredAt
		item.OccurredAt = &occurred
		item.Title = memoryTitle(r)
		item.ContentURL = fmt.Sprintf("/api/memories/%s", r.ID)
		item.Snippet = snippet(result.Highlights, r.Content)
	case *types.CodeRecord:
		item.Type = "code"
		item.Language = r.Language
		item.Title = codeTitle(r)
		item.ContentURL = fmt.Sprintf("/api/code/%s", r.ID)
		item.Snippet = snippet(result.Highlights, r.Content)
	default:
		item.Type = "pattern"
		if pattern, ok := result.Entity.(*types.PatternRecord); ok {
			item.Title = pattern.Name
		}
		item.Snippet = snippet(result.Highlights, "")
	}
	return item
}

func memoryTitle(r *types.MemoryRecord) string {
	project := r.ProjectName
	if project == "" {
		project = "memory"
	}
	if r.OccurredAt.IsZero() {
		return project
	}
	return project + " — " + r.OccurredAt.Format("Jan 2, 2006")
}

func codeTitle(r *types.CodeRecord) string {
	if r.Path != "" {
		return path.Base(r.Path)
	}
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// snippet is the first highlight with markup stripped, else the first 200
// characters of content, else a fixed placeholder.
func snippet(highlights []string, content string) string {
	if len(highlights) > 0 {
		cleaned := strings.TrimSpace(markupRe.ReplaceAllString(highlights[0], ""))
		if cleaned != "" {
			return cleaned
		}
	}
	if content != "" {
		return firstN(content, 200)
	}
	return noPreview
}

// BuildFacets counts projects, languages, and result types over the
// filtered set, each facet sorted descending by count.
func BuildFacets(items []types.ResultItem) types.Facets {
	projects := make(map[string]int)
	languages := make(map[string]int)
	resultTypes := make(map[string]int)

	for _, item := range items {
		if item.Project != "" {
			projects[item.Project]++
		}
		if item.Language != "" {
			languages[item.Language]++
		}
		resultTypes[item.Type]++
	}

	return types.Facets{
		Projects:  sortedFacet(projects),
		Languages: sortedFacet(languages),
		Types:     sortedFacet(resultTypes),
	}
}

func sortedFacet(counts map[string]int) []types.FacetCount {
	out := make([]types.FacetCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, types.FacetCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// BuildGroups derives the optional session and project groupings.
func BuildGroups(items []types.ResultItem, results []types.SearchResult, opts types.SearchOptions) *types.ResultGroups {
	if !opts.GroupBySession && !opts.GroupByProject {
		return nil
	}

	groups := &types.ResultGroups{}
	if opts.GroupBySession {
		groups.Sessions = groupBySession(items, results)
	}
	if opts.GroupByProject {
		groups.Projects = groupByProject(items)
	}
	return groups
}

func groupBySession(items []types.ResultItem, results []types.SearchResult) []types.SessionGroup {
	bySession := make(map[string]*types.SessionGroup)
	var order []string

	for i, item := range items {
		memory, ok := results[i].Entity.(*types.MemoryRecord)
		if !ok || memory.SessionID == "" {
			continue
		}
		group, exists := bySession[memory.SessionID]
		if !exists {
			group = &types.SessionGroup{SessionID: memory.SessionID, Start: memory.OccurredAt, End: memory.OccurredAt}
			bySession[memory.SessionID] = group
			order = append(order, memory.SessionID)
		}
		if memory.OccurredAt.Before(group.Start) {
			group.Start = memory.OccurredAt
		}
		if memory.OccurredAt.After(group.End) {
			group.End = memory.OccurredAt
		}
		group.Items = append(group.Items, item)
	}

	out := make([]types.SessionGroup, 0, len(order))
	for _, id := range order {
		out = append(out, *bySession[id])
	}
	return out
}

func groupByProject(items []types.ResultItem) []types.ProjectGroup {
	byProject := make(map[string]*types.ProjectGroup)
	var order []string

	for _, item := range items {
		if item.Type != "code" || item.Project == "" {
			continue
		}
		group, exists := byProject[item.Project]
		if !exists {
			group = &types.ProjectGroup{Project: item.Project}
			byProject[item.Project] = group
			order = append(order, item.Project)
		}
		if item.Language != "" && !contains(group.Languages, item.Language) {
			group.Languages = append(group.Languages, item.Language)
		}
		group.Items = append(group.Items, item)
	}

	out := make([]types.ProjectGroup, 0, len(order))
	for _, project := range order {
		out = append(out, *byProject[project])
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
