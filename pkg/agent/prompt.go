// Package agent holds the prompted LLM services the orchestrator composes:
// task planning, search query generation, task result generation and
// evaluation, general answering, and final answer synthesis. Each service owns
// its system prompt and, where the output is structured, its JSON schema.
package agent

import "time"

// currentDate renders today's date the way the prompts expect it.
func currentDate() string {
	return time.Now().Format("2006年01月02日")
}
