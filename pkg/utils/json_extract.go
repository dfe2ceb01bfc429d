package utils

import "strings"

// ExtractJSON returns the outermost {...} object in a model response,
// tolerating code fences and surrounding prose. Empty when none is found.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
