package version

// Version is the release reported by /health, /ready and /api/version.
const Version = "1.3.0"

type Release struct {
	Version string   `json:"version"`
	Changes []string `json:"changes"`
}

var changelog = []Release{
	{Version: "1.3.0", Changes: []string{
		"Structured answer prompt variant with plain-text fallback",
		"Anthropic and Gemini model backends",
		"Optional pgvector chunk store",
	}},
	{Version: "1.2.0", Changes: []string{
		"Per-client sliding window rate limiting",
		"Correlation IDs on every response and log line",
		"Health and readiness endpoints",
	}},
	{Version: "1.1.0", Changes: []string{
		"Document weighting by category with weighted re-ranking",
		"Query validation and content filtering",
	}},
	{Version: "1.0.0", Changes: []string{
		"Initial question answering over the résumé, fun facts and kudos",
	}},
}

// Changelog returns the release history, newest first. Callers get their own copy.
func Changelog() []Release {
	out := make([]Release, len(changelog))
	for i, r := range changelog {
		out[i] = Release{Version: r.Version, Changes: append([]string(nil), r.Changes...)}
	}
	return out
}
