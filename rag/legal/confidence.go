package legal

// ConfidenceLevel is the categorical form of the pipeline confidence.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Signals are the inputs of the pipeline confidence score.
type Signals struct {
	HasDomain       bool
	Statutes        int
	Cases           int
	Recommendations int
	HasExplanation  bool
}

// Confidence combines evidence counts into a score in [0,1]:
// a 0.3 base, +0.1 for a domain, up to 0.2 for statutes and cases each
// (0.05 per item), up to 0.1 for recommendations (0.02 each) and +0.1 for
// an explanation.
func Confidence(s Signals) float64 {
	score := 0.3
	if s.HasDomain {
		score += 0.1
	}
	score += bounded(0.05*float64(s.Statutes), 0.2)
	score += bounded(0.05*float64(s.Cases), 0.2)
	score += bounded(0.02*float64(s.Recommendations), 0.1)
	if s.HasExplanation {
		score += 0.1
	}
	return bounded(score, 1)
}

// Level maps a score to low (< 0.6), medium (< 0.8) or high.
func Level(score float64) ConfidenceLevel {
	switch {
	case score < 0.6:
		return ConfidenceLow
	case score < 0.8:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func bounded(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func signalsFromState(st *State) Signals {
	return Signals{
		HasDomain:       len(st.Domains) > 0,
		Statutes:        len(st.Statutes),
		Cases:           len(st.Cases),
		Recommendations: len(st.Recommendations),
		HasExplanation:  st.Explanation != "",
	}
}
