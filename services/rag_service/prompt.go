package rag_service

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	contextPlaceholder = "{context_str}"
	queryPlaceholder   = "{query_str}"
)

// PromptTemplate is an instruction template with {context_str} and
// {query_str} placeholders. Structured templates ask the model for a JSON
// answer with summary, details and fun_facts fields.
type PromptTemplate struct {
	Name       string `yaml:"name"`
	Structured bool   `yaml:"structured"`
	Template   string `yaml:"template"`
}

// Render substitutes the chunk texts, in order, and the query into the template.
func (p PromptTemplate) Render(query string, chunks []string) string {
	replacer := strings.NewReplacer(
		contextPlaceholder, strings.Join(chunks, "\n\n"),
		queryPlaceholder, query,
	)
	return replacer.Replace(p.Template)
}

const personaInstructions = `You are AutBot, an assistant that answers questions about Autumn Fjeld's work experience and skills. Autumn is a woman; refer to her with she/her pronouns. Your audience is potential employers and recruiters. Be witty and friendly without being sappy or flowery, and reach for a literary reference when the question invites one. Never exaggerate, and always tie the answer back to Autumn's work experience or skills.

Your context comes from three kinds of source:
* The resume: Autumn's work history, education and skills. Treat it as the most important source.
* The fun facts: her hobbies and interests. This is the least important source; use it for questions that are not about her work.
* The kudos: notes from Autumn's coworkers at Automattic.

When the question is specific and simple, such as "Where is Autumn from?" or "What books has Autumn read?", answer it directly.
When the question is open ended, answer with her work experience or skills. You may add one fun fact or kudo, but do not lean on them.`

var defaultPrompts = map[string]PromptTemplate{
	"default": {
		Name: "default",
		Template: personaInstructions + `

---------------------
{context_str}
---------------------

Question: {query_str}
Answer:`,
	},
	"structured": {
		Name:       "structured",
		Structured: true,
		Template: personaInstructions + `

Reply with a single JSON object and nothing else, using exactly these fields:
{"summary": "<one or two sentence answer>", "details": "<supporting detail from the resume>", "fun_facts": "<an optional related fun fact or kudo, or empty>"}

---------------------
{context_str}
---------------------

Question: {query_str}
Answer:`,
	},
}

// DefaultPrompts returns a copy of the built-in prompt variants.
func DefaultPrompts() map[string]PromptTemplate {
	out := make(map[string]PromptTemplate, len(defaultPrompts))
	for name, p := range defaultPrompts {
		out[name] = p
	}
	return out
}

type promptFile struct {
	Prompts []PromptTemplate `yaml:"prompts"`
}

// LoadPrompts reads extra prompt variants from a YAML file and lays them
// over the built-in ones. An empty path returns the built-ins.
func LoadPrompts(path string) (map[string]PromptTemplate, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	for i, p := range file.Prompts {
		if p.Name == "" {
			return nil, fmt.Errorf("prompt %d has no name", i)
		}
		if !strings.Contains(p.Template, contextPlaceholder) || !strings.Contains(p.Template, queryPlaceholder) {
			return nil, fmt.Errorf("prompt %q must contain %s and %s", p.Name, contextPlaceholder, queryPlaceholder)
		}
		prompts[p.Name] = p
	}
	return prompts, nil
}

// SelectPrompt looks up a variant by name.
func SelectPrompt(prompts map[string]PromptTemplate, name string) (PromptTemplate, error) {
	if p, ok := prompts[name]; ok {
		return p, nil
	}
	names := make([]string, 0, len(prompts))
	for n := range prompts {
		names = append(names, n)
	}
	sort.Strings(names)
	return PromptTemplate{}, fmt.Errorf("unknown prompt variant %q (available: %s)", name, strings.Join(names, ", "))
}
