package completion

import "strings"

const codeFence = "```"

// ExtractDocument trims the answer and removes one markdown code fence that
// wraps the whole answer, including its info string such as "json".
func ExtractDocument(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2*len(codeFence) || !strings.HasPrefix(trimmed, codeFence) || !strings.HasSuffix(trimmed, codeFence) {
		return trimmed
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, codeFence), codeFence)
	if newlineIndex := strings.IndexByte(inner, '\n'); newlineIndex >= 0 {
		infoString := strings.TrimSpace(inner[:newlineIndex])
		if !strings.ContainsAny(infoString, "{[\"") {
			inner = inner[newlineIndex+1:]
		}
	}
	return strings.TrimSpace(inner)
}
