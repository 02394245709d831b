package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/mnemograph/mnemograph/pkg/types"
)

var (
	thinkTagRe  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// DecodeJSON unmarshals model output into target, tolerating think tags,
// code fences, and minor JSON damage. A response that cannot be repaired is
// a MalformedResponseError, which is distinct from a transport failure and
// tells the classifier to use its deterministic fallback.
func DecodeJSON(raw string, target any) error {
	cleaned := strings.TrimSpace(thinkTagRe.ReplaceAllString(raw, ""))
	if m := codeFenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	if err := json.Unmarshal([]byte(cleaned), target); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return &types.MalformedResponseError{Service: "llm", Raw: raw, Err: err}
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return &types.MalformedResponseError{Service: "llm", Raw: raw, Err: err}
	}
	return nil
}
