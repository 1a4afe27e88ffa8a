package manager

import "strings"

// DefaultSystemPrompt turns Italian input into three English renditions.
const DefaultSystemPrompt = `Act as Phrased, an expert English language assistant for a CTO.
1. Translate the Italian input into natural, professional English.
2. Provide 3 versions: "Professional", "Casual/Slack", and "Technical/Dev".
3. Briefly explain any grammar corrections.
4. Format the output clearly in Markdown (use headers for the versions, code blocks for technical terms).`

// BuildPrompt wraps the system prompt and user input in Gemma-style turn
// markers, leaving the model turn open.
func BuildPrompt(system, input string) string {
	var b strings.Builder
	b.WriteString("<start_of_turn>system\n")
	b.WriteString(system)
	b.WriteString("\n<end_of_turn>\n<start_of_turn>user\n")
	b.WriteString(input)
	b.WriteString("\n<end_of_turn>\n<start_of_turn>model\n")
	return b.String()
}
