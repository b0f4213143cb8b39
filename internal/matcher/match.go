package matcher

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/pocketnotes/internal/models"
)

// Pair is a book file matched with its bookmark export. ID is assigned
// sequentially in match order.
type Pair struct {
	ID   int
	Book models.FileRef
	Note models.FileRef
}

// Result holds the matched pairs and the files that could not be paired.
type Result struct {
	Pairs         []Pair
	LeftoverBooks []models.FileRef
	LeftoverNotes []models.FileRef
}

// LogSummary writes the match counts at info level.
func (r Result) LogSummary(logger *slog.Logger) {
	logger.Info("matcher: done",
		slog.Int("matched", len(r.Pairs)),
		slog.Int("leftover_notes", len(r.LeftoverNotes)),
		slog.Int("leftover_books", len(r.LeftoverBooks)))
}

type keyed struct {
	ref models.FileRef
	key string
}

// Match pairs books with notes in two greedy passes over path-sorted input.
//
// Book-first: each book takes the first remaining note whose normalized
// stem is contained in the book's. Note-first: each leftover note takes
// the first leftover book whose normalized stem is contained in the
// note's. The first candidate in iteration order wins; there is no scoring.
func Match(books, notes []models.FileRef) Result {
	bookPool := sortedKeys(books)
	notePool := sortedKeys(notes)

	var res Result

	var unmatchedBooks []keyed
	for _, b := range bookPool {
		i := slices.IndexFunc(notePool, func(n keyed) bool {
			return strings.Contains(b.key, n.key)
		})
		if i < 0 {
			unmatchedBooks = append(unmatchedBooks, b)
			continue
		}
		res.Pairs = append(res.Pairs, Pair{ID: len(res.Pairs), Book: b.ref, Note: notePool[i].ref})
		notePool = without(notePool, i)
	}

	var unmatchedNotes []keyed
	for _, n := range notePool {
		i := slices.IndexFunc(unmatchedBooks, func(b keyed) bool {
			return strings.Contains(n.key, b.key)
		})
		if i < 0 {
			unmatchedNotes = append(unmatchedNotes, n)
			continue
		}
		res.Pairs = append(res.Pairs, Pair{ID: len(res.Pairs), Book: unmatchedBooks[i].ref, Note: n.ref})
		unmatchedBooks = without(unmatchedBooks, i)
	}

	res.LeftoverBooks = refs(unmatchedBooks)
	res.LeftoverNotes = refs(unmatchedNotes)
	return res
}

func sortedKeys(files []models.FileRef) []keyed {
	out := make([]keyed, len(files))
	for i, f := range files {
		out[i] = keyed{ref: f, key: Normalize(f.Stem)}
	}
	slices.SortStableFunc(out, func(a, b keyed) int {
		return strings.Compare(a.ref.Path, b.ref.Path)
	})
	return out
}

// without returns a new slice with element i removed.
func without(pool []keyed, i int) []keyed {
	out := make([]keyed, 0, len(pool)-1)
	out = append(out, pool[:i]...)
	return append(out, pool[i+1:]...)
}

func refs(pool []keyed) []models.FileRef {
	out := make([]models.FileRef, len(pool))
	for i, k := range pool {
		out[i] = k.ref
	}
	return out
}
