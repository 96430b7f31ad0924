package llm

import "strings"

// ExtractJSON unwraps a model response down to the single JSON object the
// capability contract promises. It strips markdown fences when present and
// then slices the outermost brace pair, tolerating stray prose around the
// object. The result is fed to json.Unmarshal by the caller; an
// unparseable response stays the caller's problem.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
