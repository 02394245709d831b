package intent

import (
	"regexp"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// Deterministic keyword classifier. Used whenever the LLM path is
// unavailable, errors, or returns unparsable output.

var (
	codeTokenRe  = regexp.MustCompile(`(?i)\b(func(tion)?|class|method|struct|interface|import|variable|endpoint|api)\b|\.(go|ts|py|js|rs|java)\b|::|->|\w+\(\)`)
	timePhraseRe = regexp.MustCompile(`(?i)\b(today|yesterday|last (hour|day|week|month)|this (week|month)|recent(ly)?|\d+\s+(hours?|days?|weeks?)\s+ago|since\b)`)
	memoryWordRe = regexp.MustCompile(`(?i)\b(remember|discussed|talked|conversation|session|note[ds]?|wrote down|worked on)\b`)
)

// patternVocabulary maps query vocabulary to pattern categories. Ordered so
// repeated classification of the same query yields the same Patterns slice.
var patternVocabulary = []struct {
	category string
	words    []string
}{
	{"debugging", []string{"debug", "debugging", "error", "bug", "crash", "stack trace", "troubleshoot", "fix", "broken"}},
	{"learning", []string{"learn", "learning", "learned", "study", "understand", "how does", "tutorial", "documentation"}},
	{"refactoring", []string{"refactor", "refactoring", "cleanup", "restructure", "rename", "extract"}},
	{"problem_solving", []string{"solve", "solution", "problem", "figured out", "approach", "worked through"}},
}

// genericPatternRe matches queries that ask for patterns or sessions without
// naming a category; those search all categories.
var genericPatternRe = regexp.MustCompile(`(?i)\b(patterns?|sessions?|habits?|recurring)\b`)

func (c *Classifier) classifyKeywords(query string) types.Interpretation {
	lower := strings.ToLower(query)

	interp := types.Interpretation{
		PrimaryIntent: types.IntentExplore,
		Timeframe:     types.TimeframeNone,
		Fallback:      true,
	}

	if timePhraseRe.MatchString(query) {
		interp.Timeframe = types.TimeframeRecent
	}

	for _, entry := range patternVocabulary {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				interp.Patterns = append(interp.Patterns, entry.category)
				break
			}
		}
	}
	if len(interp.Patterns) == 0 && genericPatternRe.MatchString(query) {
		// No specific category named: search all of them.
		interp.Patterns = []string{"debugging", "learning", "refactoring", "problem_solving"}
		interp.PrimaryIntent = types.IntentFindPattern
	}

	codeHits := len(codeTokenRe.FindAllString(query, -1))
	switch {
	case codeHits >= 2:
		interp.CodeRelevance = 0.9
	case codeHits == 1:
		interp.CodeRelevance = 0.6
	default:
		interp.CodeRelevance = 0.1
	}

	switch {
	case interp.PrimaryIntent == types.IntentFindPattern:
		// keep
	case interp.CodeRelevance >= 0.6:
		interp.PrimaryIntent = types.IntentFindCode
	case memoryWordRe.MatchString(query):
		interp.PrimaryIntent = types.IntentFindMemory
	case interp.Timeframe != types.TimeframeNone:
		interp.PrimaryIntent = types.IntentRecent
	}

	interp.Strategies = SelectStrategies(interp)
	return interp
}
