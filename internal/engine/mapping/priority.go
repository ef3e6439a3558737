package mapping

import "strings"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var prioritySynonyms = map[string]string{
	"low":   PriorityLow,
	"baixa": PriorityLow,
	"baixo": PriorityLow,

	"medium": PriorityMedium,
	"media":  PriorityMedium,
	"média":  PriorityMedium,
	"medio":  PriorityMedium,
	"médio":  PriorityMedium,

	"high": PriorityHigh,
	"alta": PriorityHigh,
	"alto": PriorityHigh,
}

// NormalizePriority maps free text onto low, medium or high. Unknown and
// empty input is medium.
func NormalizePriority(raw string) string {
	if p, ok := prioritySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return PriorityMedium
}
