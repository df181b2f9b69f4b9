package genai

// Params are the generation parameters sent with every request. Values
// are clamped to the endpoint's accepted ranges before use, whatever the
// stored or imported values were.
type Params struct {
	Temperature float64
	TopP        float64
	TopK        int
}

// Clamped returns a copy with every field forced into range:
// temperature [0,2], topP [0,1], topK [1,200].
func (p Params) Clamped() Params {
	out := p
	out.Temperature = clampFloat(p.Temperature, 0, 2)
	out.TopP = clampFloat(p.TopP, 0, 1)
	out.TopK = clampInt(p.TopK, 1, 200)
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// content is one turn in the generateContent request.
type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generationConfig mirrors the endpoint's generationConfig object.
type generationConfig struct {
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"topP"`
	TopK           int     `json:"topK"`
	CandidateCount int     `json:"candidateCount"`
}

// generateRequest is the JSON body for POST /models/{model}:generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// generateResponse is the JSON returned by generateContent. The response
// text lives at candidates[0].content.parts[0].text; anything else is
// treated as an empty response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// errorResponse is the JSON error envelope returned on failure statuses.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// modelsResponse mirrors the JSON returned by GET /models.
type modelsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name string `json:"name"`
}
