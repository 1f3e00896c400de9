// Package search is the client side of finding ads: filtering a fetched list,
// debounced city suggestions and the recent-search history.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
)

// Filter keeps ads whose departure or arrival city contains q, ignoring case.
// Order is preserved.
func Filter(ads []aduc.View, q string) []aduc.View {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q))
	if needle == "" {
		return ads
	}

	out := make([]aduc.View, 0, len(ads))
	for _, a := range ads {
		if strings.Contains(fold.String(a.DepartureCity), needle) ||
			strings.Contains(fold.String(a.ArrivalCity), needle) {
			out = append(out, a)
		}
	}
	return out
}
