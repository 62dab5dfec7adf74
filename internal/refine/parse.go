package refine

import (
	"strings"
)

const (
	markerAnalysis  = "ANALYSIS:"
	markerChanges   = "CHANGES:"
	markerNewPrompt = "NEW PROMPT:"
)

// Parsed is the structured form of a reflection response. UsedFallback marks
// a degraded parse: no candidate prompt could be extracted by any strategy
// and NewPrompt was set to the unchanged current prompt.
type Parsed struct {
	Analysis     string   `json:"analysis"`
	Changes      []string `json:"changes"`
	NewPrompt    string   `json:"new_prompt"`
	UsedFallback bool     `json:"used_fallback"`
}

// ParseReflection extracts the three sections of a reflection response with
// layered best-effort strategies. Missing sections never error: absent
// analysis/changes come back empty, and an unextractable prompt falls back to
// currentPrompt unchanged.
func ParseReflection(response, currentPrompt string) Parsed {
	p := Parsed{
		Analysis: extractAnalysis(response),
		Changes:  extractChanges(response),
	}

	p.NewPrompt = extractNewPrompt(response)
	if p.NewPrompt == "" {
		// No NEW PROMPT section yielded anything; take the last complete
		// fenced block anywhere in the response.
		p.NewPrompt = lastFencedBlock(response)
	}
	if p.NewPrompt == "" {
		p.NewPrompt = currentPrompt
		p.UsedFallback = true
	}

	return p
}

// extractAnalysis returns the text between ANALYSIS: and CHANGES: (or the end
// of the response), empty if the marker is absent.
func extractAnalysis(response string) string {
	start := strings.Index(response, markerAnalysis)
	if start < 0 {
		return ""
	}
	start += len(markerAnalysis)

	end := len(response)
	if i := strings.Index(response, markerChanges); i >= 0 {
		end = i
	}
	if end < start {
		return ""
	}
	return strings.TrimSpace(response[start:end])
}

// extractChanges returns the bullet lines between CHANGES: and NEW PROMPT:
// (or the end of the response). Non-bullet lines are dropped.
func extractChanges(response string) []string {
	start := strings.Index(response, markerChanges)
	if start < 0 {
		return nil
	}
	start += len(markerChanges)

	end := len(response)
	if i := strings.Index(response, markerNewPrompt); i >= 0 {
		end = i
	}
	if end < start {
		return nil
	}

	var changes []string
	for _, line := range strings.Split(response[start:end], "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
			continue
		}
		changes = append(changes, strings.TrimSpace(strings.TrimLeft(line, "-* ")))
	}
	return changes
}

// extractNewPrompt tries, in order: triple-double-quote block, triple-single-
// quote block, fenced block, then the remaining trimmed text with stray
// backticks stripped. Empty string if the NEW PROMPT marker is absent.
func extractNewPrompt(response string) string {
	idx := strings.LastIndex(response, markerNewPrompt)
	if idx < 0 {
		return ""
	}
	section := strings.TrimSpace(response[idx+len(markerNewPrompt):])

	switch {
	case strings.Contains(section, `"""`):
		if parts := strings.Split(section, `"""`); len(parts) >= 2 {
			return strings.TrimSpace(parts[1])
		}
	case strings.Contains(section, "'''"):
		if parts := strings.Split(section, "'''"); len(parts) >= 2 {
			return strings.TrimSpace(parts[1])
		}
	case strings.Contains(section, "```"):
		if parts := strings.Split(section, "```"); len(parts) >= 2 {
			return stripFenceHeader(parts[1])
		}
	}

	return strings.TrimSpace(strings.Trim(strings.TrimSpace(section), "`"))
}

// lastFencedBlock returns the content of the last complete ``` block in the
// whole response, or empty if there is none.
func lastFencedBlock(response string) string {
	parts := strings.Split(response, "```")
	if len(parts) < 3 {
		return ""
	}
	return stripFenceHeader(parts[len(parts)-2])
}

// stripFenceHeader drops an optional language-tag line at the start of a
// fenced block's content.
func stripFenceHeader(content string) string {
	if strings.HasPrefix(content, "\n") {
		content = content[1:]
	} else if i := strings.Index(content, "\n"); i >= 0 {
		first := strings.TrimSpace(content[:i])
		if first == "" || isAlpha(first) {
			content = content[i+1:]
		}
	}
	return strings.TrimSpace(content)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
