package chat

import (
	"fmt"
	"strings"

	"github.com/moviemind-ai/moviemind/internal/storage"
)

// FormatMovies renders retrieved movies as a numbered list suitable for a
// chat reply.
func FormatMovies(movies []storage.Movie) string {
	var sb strings.Builder
	for i, m := range movies {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, m.Title))
		if m.ReleaseDate != nil {
			sb.WriteString(fmt.Sprintf(" (%s)", m.ReleaseDate.Format("January 2, 2006")))
		}
		sb.WriteString(fmt.Sprintf(" | rating: %.1f | popularity: %.1f", m.VoteAverage, m.Popularity))
		if m.Overview != "" {
			sb.WriteString("\n   ")
			sb.WriteString(m.Overview)
		}
	}
	return sb.String()
}
