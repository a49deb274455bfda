// Package evaluation runs canned questions through the agent and reports
// which expected keywords each answer mentions.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/serisow/autbot/pipeline_type"
	"gopkg.in/yaml.v3"
)

type Answerer interface {
	Answer(ctx context.Context, query string) (pipeline_type.Answer, error)
}

type Case struct {
	Query            string   `yaml:"query"`
	ExpectedKeywords []string `yaml:"expected_keywords"`
}

type Result struct {
	Case     Case
	Response string
	Found    []string
	Err      error
}

// Score is the fraction of expected keywords found, as "found/expected".
func (r Result) Score() string {
	return fmt.Sprintf("%d/%d", len(r.Found), len(r.Case.ExpectedKeywords))
}

func DefaultCases() []Case {
	return []Case{
		{
			Query:            "Where did Autumn work last?",
			ExpectedKeywords: []string{"Automattic", "WordPress", "recent", "last"},
		},
		{
			Query:            "What was Autumn's job title at her last role?",
			ExpectedKeywords: []string{"Product Engineering Lead", "Engineering Lead", "Automattic"},
		},
		{
			Query:            "What companies has Autumn worked for?",
			ExpectedKeywords: []string{"Automattic", "ustwo", "company", "work"},
		},
	}
}

// LoadCases reads a YAML file with a top-level "cases" list.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading evaluation cases: %w", err)
	}

	var file struct {
		Cases []Case `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing evaluation cases: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("no evaluation cases in %s", path)
	}
	for i, c := range file.Cases {
		if strings.TrimSpace(c.Query) == "" {
			return nil, fmt.Errorf("evaluation case %d has no query", i+1)
		}
	}
	return file.Cases, nil
}

// Run asks every case in order. A failing case is recorded and the run
// continues.
func Run(ctx context.Context, agent Answerer, cases []Case, logger *slog.Logger) []Result {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		result := Result{Case: c}
		answer, err := agent.Answer(ctx, c.Query)
		if err != nil {
			logger.Error("Evaluation case failed",
				slog.String("query", c.Query),
				slog.String("error", err.Error()))
			result.Err = err
		} else {
			result.Response = answer.Text
			result.Found = MatchKeywords(answer.Text, c.ExpectedKeywords)
		}
		results = append(results, result)
	}
	return results
}

// MatchKeywords returns the keywords that occur in text, ignoring case, in
// the order they were given.
func MatchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			found = append(found, k)
		}
	}
	return found
}

func Report(w io.Writer, results []Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Query", "Found", "Score", "Response"})
	table.SetAutoWrapText(false)

	for i, r := range results {
		response := r.Response
		if r.Err != nil {
			response = "ERROR: " + r.Err.Error()
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Case.Query,
			strings.Join(r.Found, ", "),
			r.Score(),
			truncate(response, 80),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
