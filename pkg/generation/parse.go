package generation

import (
	"regexp"
	"strings"

	"research-assistant-be/internal/constant"
)

var bulletPrefix = regexp.MustCompile(`^(?:[-•*]|\d{1,2}[.)])\s*`)

var comparisonWords = map[string]bool{"vs": true, "vs.": true, "versus": true, "compare": true, "between": true}

const fallbackFinding = "Key findings extracted from literature"

// ParseFindings keeps bulleted or numbered lines, at most five.
func ParseFindings(text string) []string {
	var findings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		loc := bulletPrefix.FindStringIndex(line)
		if loc == nil {
			continue
		}
		f := strings.TrimSpace(line[loc[1]:])
		if f == "" {
			continue
		}
		findings = append(findings, f)
		if len(findings) == maxFindings {
			break
		}
	}
	if len(findings) == 0 {
		return []string{fallbackFinding}
	}
	return findings
}

// ExtractTreatments finds known drug names, falling back to the words around a
// comparison keyword such as "versus".
func ExtractTreatments(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, drug := range constant.CommonDrugs {
		if strings.Contains(lower, drug) {
			out = append(out, strings.ToUpper(drug[:1])+drug[1:])
		}
	}
	if len(out) > 0 {
		return out
	}

	seen := make(map[string]bool)
	words := strings.Fields(text)
	for i, w := range words {
		if !comparisonWords[strings.ToLower(w)] {
			continue
		}
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(words) {
				continue
			}
			t := strings.Trim(words[j], ",.?!;:")
			if t != "" && !comparisonWords[strings.ToLower(t)] && !seen[strings.ToLower(t)] {
				seen[strings.ToLower(t)] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// extractJSON trims any prose or code fence around the first JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
