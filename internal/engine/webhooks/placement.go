package webhooks

import "leadhook/internal/platform/models"

// PickColumn returns the column a new lead is placed on: the endpoint default
// column when it is one of the pipeline's columns, otherwise the pipeline
// column with the lowest position. Columns sharing the lowest position
// resolve to the first in list order. It returns "" when there is nowhere to
// place the lead.
func PickColumn(detail *models.EndpointDetail) string {
	if detail == nil {
		return ""
	}

	var def string
	if detail.DefaultColumnID != nil {
		def = *detail.DefaultColumnID
	}

	var best *models.PipelineColumn
	for _, c := range detail.Columns {
		if c == nil {
			continue
		}
		if def != "" && c.ID == def {
			return def
		}
		if best == nil || c.Position < best.Position {
			best = c
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}
