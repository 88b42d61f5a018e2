// File: internal/aggregate/parse.go
package aggregate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xkilldash9x/refine-cli/api/schemas"
)

const systemPrompt = `You are an expert Python optimization engineer.
Your job is to improve Python code for performance and readability
WITHOUT changing what it does - same inputs, same outputs, same side effects.

STRICT RULES:
1. Preserve ALL logic exactly. Never silently change behaviour.
2. Only improve: time/space complexity, Pythonic style, stdlib usage,
   unnecessary loops, redundant variables, or inefficient data structures.
3. If you want to change an algorithm, mark it [OPTIONAL] and explain why.
4. Never add external dependencies that weren't already in the code.
5. Don't add any comments or docstrings that weren't in the original code.
6. Return your answer in EXACTLY this format - no extra prose outside the blocks:

` + "```optimized" + `
<your full optimized Python code here>
` + "```" + `
` + "```json" + `
{
  "changes": ["<what you changed and why>", "..."],
  "confidence": <float 0.0-1.0>,
  "risk": "<low|medium|high>"
}
` + "```" + `

confidence = how certain you are the optimized code is logically equivalent.
risk       = chance of subtle behaviour change (low / medium / high).
`

// buildUserPrompt wraps the submission. Qwen models accept a /think
// prefix that enables chain-of-thought before the formatted answer.
func buildUserPrompt(code, backendID string) string {
	prefix := ""
	if strings.Contains(strings.ToLower(backendID), "qwen") {
		prefix = "/think\n\n"
	}
	return prefix + "Optimize the following Python code. Logic must be preserved exactly.\n\n```python\n" + code + "\n```"
}

var (
	thinkingBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	optimizedBlockPattern = regexp.MustCompile("(?s)```optimized\\s*\n(.*?)```")
	jsonBlockPattern      = regexp.MustCompile("(?s)```json\\s*\n(.*?)```")
	genericBlockPattern   = regexp.MustCompile("(?s)```(?:python)?\\s*\n(.*?)```")
)

// responseMetadata is the structured trailer the prompt demands.
// Pointers distinguish absent fields from zero values so defaults apply
// only when the model omitted something.
type responseMetadata struct {
	Changes    []string `json:"changes"`
	Confidence *float64 `json:"confidence"`
	Risk       *string  `json:"risk"`
}

// parseResponse extracts the code and metadata blocks from a raw
// response. Reasoning models may prepend an internal-thinking block;
// strip it first so the fence patterns anchor correctly. Missing or
// malformed metadata falls back to {changes:[], confidence:0.5,
// risk:medium}.
func parseResponse(raw string) candidate {
	raw = strings.TrimSpace(thinkingBlockPattern.ReplaceAllString(raw, ""))

	c := candidate{
		changes:    []string{},
		confidence: 0.5,
		risk:       schemas.RiskMedium,
	}

	if m := optimizedBlockPattern.FindStringSubmatch(raw); m != nil {
		c.hasCode = true
		c.code = strings.TrimSpace(m[1])
	}

	if m := jsonBlockPattern.FindStringSubmatch(raw); m != nil {
		var meta responseMetadata
		if err := json.Unmarshal([]byte(m[1]), &meta); err == nil {
			if meta.Changes != nil {
				c.changes = meta.Changes
			}
			if meta.Confidence != nil {
				c.confidence = *meta.Confidence
			}
			if meta.Risk != nil {
				c.risk = schemas.RiskLabel(*meta.Risk)
			}
		}
	}

	// Fallback: the model wrapped code in a plain fence instead of the
	// requested ```optimized block.
	if !c.hasCode {
		if m := genericBlockPattern.FindStringSubmatch(raw); m != nil {
			c.hasCode = true
			c.code = strings.TrimSpace(m[1])
		}
	}
	return c
}
