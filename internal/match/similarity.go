package match

import "github.com/xrash/smetrics"

// Similarity scores how alike two normalized strings are, in [0, 1].
// 1 means identical, 0 means nothing in common.
type Similarity func(a, b string) float64

// JaroWinkler is the default Similarity. It favors strings that share a
// prefix, which suits track titles where remix annotations trail the name.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	score := smetrics.JaroWinkler(a, b, 0.7, 4)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
