// Package prompt renders the instruction sent to a model for each enrichment task.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/gateway"
)

// Task is an enrichment task kind.
type Task string

const (
	TaskSuggestion      Task = "suggestion"
	TaskCategorization  Task = "categorization"
	TaskTagExtraction   Task = "tag_extraction"
	TaskEnhancement     Task = "enhancement"
	TaskSummarization   Task = "summarization"
	TaskExpansion       Task = "expansion"
	TaskConceptAnalysis Task = "concept_analysis"
	TaskRelatedIdeas    Task = "related_ideas"
	TaskMindMap         Task = "mind_map"
)

// ChainMaxTokens is the output ceiling of every chain step.
const ChainMaxTokens = 500

// Spec is the fixed definition of a task.
type Spec struct {
	Task      Task
	Template  string // one %s verb, replaced by the note content
	MaxTokens int
	Tier      gateway.Tier
}

var specs = map[Task]Spec{
	TaskSuggestion: {
		Template:  "Based on this note content: '%s', suggest improvements and related topics.",
		MaxTokens: 100,
		Tier:      gateway.TierLight,
	},
	TaskCategorization: {
		Template:  "Categorize this note content into one word: '%s'",
		MaxTokens: 20,
		Tier:      gateway.TierLight,
	},
	TaskTagExtraction: {
		Template:  "Extract 3-5 relevant single-word tags from this note content. Return only the tags separated by commas: '%s'",
		MaxTokens: 50,
		Tier:      gateway.TierLight,
	},
	TaskEnhancement: {
		Template:  "Enhance this note by improving grammar and clarity: '%s'",
		MaxTokens: 200,
		Tier:      gateway.TierStandard,
	},
	TaskSummarization: {
		Template:  "Provide a concise summary of this note content in 2-3 sentences: '%s'",
		MaxTokens: 100,
		Tier:      gateway.TierStandard,
	},
	TaskExpansion: {
		Template: `Analyze and expand this idea in detail. Provide:
1. Main concept explanation
2. Key implications
3. Potential applications
4. Related concepts
5. Possible challenges
Idea: '%s'`,
		MaxTokens: 500,
		Tier:      gateway.TierStandard,
	},
	TaskConceptAnalysis: {
		Template: `Perform a comprehensive analysis of this concept:
1. Core components
2. Underlying principles
3. Real-world applications
4. Advantages and limitations
5. Innovation potential
Concept: '%s'`,
		MaxTokens: 400,
		Tier:      gateway.TierStandard,
	},
	TaskRelatedIdeas: {
		Template: `Generate 5 related ideas or concepts that could expand or complement this thought:
1. Direct extensions
2. Alternative approaches
3. Complementary concepts
4. Innovative applications
5. Future possibilities
Original idea: '%s'`,
		MaxTokens: 300,
		Tier:      gateway.TierStandard,
	},
	TaskMindMap: {
		Template: `Create a mind map structure for this concept with:
1. Central theme
2. Main branches (4-6)
3. Sub-branches (2-3 per main branch)
4. Key connections
5. Growth directions
Content: '%s'`,
		MaxTokens: 400,
		Tier:      gateway.TierStandard,
	},
}

const chainBaseTemplate = "Analyze this content: '%s'\n\n"

// Tasks returns every task kind in a stable order.
func Tasks() []Task {
	return []Task{
		TaskSuggestion, TaskCategorization, TaskTagExtraction,
		TaskEnhancement, TaskSummarization, TaskExpansion,
		TaskConceptAnalysis, TaskRelatedIdeas, TaskMindMap,
	}
}

// Lookup returns the spec of task.
func Lookup(task Task) (Spec, bool) {
	s, ok := specs[task]
	if !ok {
		return Spec{}, false
	}
	s.Task = task
	return s, true
}

// ParseTask validates a task name.
func ParseTask(s string) (Task, error) {
	t := Task(s)
	if _, ok := specs[t]; !ok {
		return "", aierr.Newf(aierr.CodeInvalidArgument, "unknown task %q", s)
	}
	return t, nil
}

// ComposeBasePrompt renders the template of task around the literal content.
func ComposeBasePrompt(task Task, content string) (string, error) {
	s, ok := specs[task]
	if !ok {
		return "", aierr.Newf(aierr.CodeInvalidArgument, "unknown task %q", task)
	}
	return fmt.Sprintf(s.Template, content), nil
}

// ComposeChainPrompt renders the chain prompt for content, listing prior insights
// in order and asking the model to build on them. No prior insights yields the
// bare chain base prompt.
func ComposeChainPrompt(content string, prior []gateway.Insight) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, chainBaseTemplate, content)
	if len(prior) == 0 {
		return sb.String()
	}

	sb.WriteString("Previous AI insights:\n")
	for _, insight := range prior {
		fmt.Fprintf(&sb, "- %s: %s\n", insight.Provider, insight.Text)
	}
	sb.WriteString("\nBuild upon these insights and provide new perspectives.\n")
	return sb.String()
}
