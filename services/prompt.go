package services

import "regexp"

var placeholderRe = regexp.MustCompile(`\{(\w+)[^}]*\}`)

// FormatPrompt substitutes {NAME} placeholders in a persona system prompt.
// Malformed placeholders like "{user_id или N/A}" are trimmed to their
// leading identifier first; unknown names resolve to "N/A" so a typo in a
// configured prompt never breaks the request.
func FormatPrompt(tpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return "N/A"
	})
}
