package query

import (
	"strings"

	"foodwaste/internal/model"
)

// ContactFilter narrows the provider contact list. Empty fields do not filter.
type ContactFilter struct {
	City         string `form:"city" json:"city"`
	Name         string `form:"name" json:"name"`
	ProviderType string `form:"provider_type" json:"provider_type"`
}

// ContactQuery builds the provider contact list statement for f. The
// provider type column and filter are included only when caps allow it.
func ContactQuery(f ContactFilter, caps model.Capabilities) (string, map[string]any) {
	var sb strings.Builder
	sb.WriteString("SELECT Name, City, Contact")
	if caps.ProviderType {
		sb.WriteString(", Type AS Provider_Type")
	}
	sb.WriteString(" FROM providers WHERE 1=1")

	args := map[string]any{}
	if v := strings.TrimSpace(f.City); v != "" {
		sb.WriteString(` AND City LIKE :city ESCAPE '\'`)
		args["city"] = LikePattern(v)
	}
	if v := strings.TrimSpace(f.ProviderType); v != "" && caps.ProviderType {
		sb.WriteString(` AND Type LIKE :provider_type ESCAPE '\'`)
		args["provider_type"] = LikePattern(v)
	}
	if v := strings.TrimSpace(f.Name); v != "" {
		sb.WriteString(` AND Name LIKE :name ESCAPE '\'`)
		args["name"] = LikePattern(v)
	}
	sb.WriteString(" ORDER BY Name ASC, Provider_ID ASC")

	return sb.String(), args
}
