package disambiguation

import "google.golang.org/genai"

// RankingSchema is the response schema of the ranking call.
func RankingSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matches": {
				Type:        genai.TypeArray,
				Description: "Best matching events, most likely first",
				MinItems:    genai.Ptr[int64](1),
				MaxItems:    genai.Ptr[int64](MaxCandidates),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id": {
							Type:        genai.TypeString,
							Description: "Event ID copied from the candidate list",
						},
						"score": {
							Type:        genai.TypeNumber,
							Description: "Confidence in [0, 1] that this is the event the user means",
							Minimum:     genai.Ptr(0.0),
							Maximum:     genai.Ptr(1.0),
						},
					},
					Required:         []string{"id", "score"},
					PropertyOrdering: []string{"id", "score"},
				},
			},
		},
		Required: []string{"matches"},
	}
}
