package bookname

import (
	"slices"
	"testing"

	"github.com/starford/pocketnotes/internal/models"
)

func mustStructured(t *testing.T, m models.Metadata) models.Structured {
	t.Helper()
	s, ok := m.(models.Structured)
	if !ok {
		t.Fatalf("expected structured metadata, got %#v", m)
	}
	return s
}

func TestParse_TitleYearPublisher(t *testing.T) {
	s := mustStructured(t, Parse("Smith, Jones - My Title (1999) - Acme"))
	if !slices.Equal(s.Authors, []string{"Smith", "Jones"}) {
		t.Errorf("authors = %v", s.Authors)
	}
	if s.Title != "My Title" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Year != 1999 {
		t.Errorf("year = %d", s.Year)
	}
	if s.Publisher != "Acme" {
		t.Errorf("publisher = %q", s.Publisher)
	}
}

func TestParse_PublisherBeforeYear(t *testing.T) {
	s := mustStructured(t, Parse("Herbert, Frank - Dune - Ace Books (1965)"))
	if s.Title != "Dune" || s.Publisher != "Ace Books" || s.Year != 1965 {
		t.Errorf("got %+v", s)
	}
	if !slices.Equal(s.Authors, []string{"Herbert", "Frank"}) {
		t.Errorf("authors = %v", s.Authors)
	}
}

func TestParse_NoPublisher(t *testing.T) {
	s := mustStructured(t, Parse("Lem - Solaris (1961)"))
	if s.Title != "Solaris" || s.Publisher != "" || s.Year != 1961 {
		t.Errorf("got %+v", s)
	}
}

func TestParse_UnderscoresRemoved(t *testing.T) {
	s := mustStructured(t, Parse("Le_Guin - The_Dispossessed (1974)"))
	if s.Title != "TheDispossessed" {
		t.Errorf("title = %q", s.Title)
	}
	if !slices.Equal(s.Authors, []string{"LeGuin"}) {
		t.Errorf("authors = %v", s.Authors)
	}
}

func TestParse_FallbackWithoutParenthesis(t *testing.T) {
	m := Parse("RandomFileNoPattern")
	f, ok := m.(models.Fallback)
	if !ok {
		t.Fatalf("expected fallback, got %#v", m)
	}
	if f.Name != "RandomFileNoPattern" || m.DisplayName() != "RandomFileNoPattern" {
		t.Errorf("fallback = %+v", f)
	}
}

func TestParse_FallbackKeepsRawStem(t *testing.T) {
	m := Parse("some_file - no year")
	if m.DisplayName() != "some_file - no year" {
		t.Errorf("display name = %q", m.DisplayName())
	}
}

func TestParse_NonNumericYearFallsBack(t *testing.T) {
	m := Parse("Author - Title (Second Edition) - Pub")
	if _, ok := m.(models.Fallback); !ok {
		t.Fatalf("expected fallback, got %#v", m)
	}
}

func TestParse_ExtraHyphensAcceptedAsIs(t *testing.T) {
	s := mustStructured(t, Parse("Sartre - Being-and-Nothing - Gallimard (1943)"))
	if s.Title != "Being-and-Nothing" || s.Publisher != "Gallimard" {
		t.Errorf("got %+v", s)
	}
}

func TestBookAccessors(t *testing.T) {
	b := &models.Book{Meta: Parse("Smith, Jones - My Title (1999) - Acme")}
	if !b.MetadataExtracted() || b.DisplayName() != "My Title" {
		t.Errorf("book = %+v", b)
	}
	if y, ok := b.Year(); !ok || y != 1999 {
		t.Errorf("year = %d, %v", y, ok)
	}

	b = &models.Book{Meta: Parse("RandomFileNoPattern")}
	if b.MetadataExtracted() || b.Authors() != nil || b.Publisher() != "" {
		t.Errorf("fallback book = %+v", b)
	}
	if _, ok := b.Year(); ok {
		t.Error("fallback book should have no year")
	}
}

func TestFileType(t *testing.T) {
	cases := map[string]string{".epub": "epub", ".fb2_": "fb2", "": ""}
	for in, want := range cases {
		if got := FileType(in); got != want {
			t.Errorf("FileType(%q) = %q, want %q", in, got, want)
		}
	}
}
