package pipeline_type

import "testing"

func TestClassifyIdentity(t *testing.T) {
	tests := []struct {
		identity string
		category Category
		weight   float64
	}{
		{"resume.txt", CategoryResume, 2.0},
		{"Autumn_RESUME_2024.md", CategoryResume, 2.0},
		{"cv.pdf", CategoryResume, 2.0},
		{"kudos.txt", CategoryKudos, 0.5},
		{"Kudos-from-team.md", CategoryKudos, 0.5},
		{"resume_kudos.txt", CategoryResume, 2.0},
		{"kudos.pdf", CategoryResume, 2.0},
		{"funfacts.txt", CategoryFunFacts, 0.5},
		{"hobbies.md", CategoryFunFacts, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			got := ClassifyIdentity(tt.identity)
			if got != tt.category {
				t.Errorf("Expected category '%s', got '%s'", tt.category, got)
			}
			if got.Weight() != tt.weight {
				t.Errorf("Expected weight %v, got %v", tt.weight, got.Weight())
			}
		})
	}
}

func TestUnknownCategoryWeight(t *testing.T) {
	if w := Category("other").Weight(); w != 1.0 {
		t.Errorf("Expected weight 1.0 for unknown category, got %v", w)
	}
}
