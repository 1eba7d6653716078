package report

import (
	"encoding/json"
	"io"

	"github.com/anhed0nic/cilens/internal/model"
)

func writeJSON(w io.Writer, insights model.CIInsights, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(insights)
}
