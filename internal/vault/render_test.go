package vault

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
)

func ptr(s string) *string { return &s }

func TestNoteString(t *testing.T) {
	n := &models.Note{
		HighlightColor: "key_idea",
		PageNumber:     12,
		Text:           "Fear is the mind-killer.",
		Annotation:     ptr("litany"),
		Tags:           []string{"fear", "Bene Gesserit"},
	}
	got, err := NoteString(n, FormatObsidian)
	if err != nil {
		t.Fatal(err)
	}
	want := "#key_idea [[fear]] [[Bene Gesserit]] \nFear is the mind-killer.(pg. 12)\n#note\n\tlitany\n"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestNoteString_NoAnnotation(t *testing.T) {
	for _, a := range []*string{nil, ptr("")} {
		n := &models.Note{HighlightColor: "standard", PageNumber: models.UnknownPage, Text: "x", Annotation: a}
		got, _ := NoteString(n, FormatObsidian)
		if want := "#standard \nx(pg. -1)\n"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if strings.Contains(got, "#note") {
			t.Error("#note block must be omitted")
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	bk := &models.Book{Meta: models.Fallback{Name: "x"}}
	if _, err := NoteString(&models.Note{}, "notion"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("NoteString err = %v", err)
	}
	if _, err := BookHeader(bk, "notion"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("BookHeader err = %v", err)
	}
	if _, err := RenderBook(bk, "", true); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("RenderBook err = %v", err)
	}
}

func TestBookHeader(t *testing.T) {
	bk := &models.Book{Meta: models.Structured{Authors: []string{"Smith", "Jones"}, Title: "My Title", Publisher: "Acme", Year: 1999}}
	bk.AddNote(&models.Note{})
	bk.AddNote(&models.Note{})

	got, err := BookHeader(bk, FormatObsidian)
	if err != nil {
		t.Fatal(err)
	}
	want := "Authors: [[Smith]] [[Jones]]\nPublisher: Acme\nYear: 1999\nn_notes: 2"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}

	fb := &models.Book{Meta: models.Fallback{Name: "random_file"}}
	if got, _ := BookHeader(fb, FormatObsidian); got != "random_file" {
		t.Errorf("fallback header = %q", got)
	}
}

func TestRenderBook_SortsByPage(t *testing.T) {
	bk := &models.Book{Meta: models.Fallback{Name: "Dune"}, HasPageNumbers: true}
	bk.AddNote(&models.Note{HighlightColor: "a", PageNumber: 30, Text: "third"})
	bk.AddNote(&models.Note{HighlightColor: "a", PageNumber: 10, Text: "first"})
	bk.AddNote(&models.Note{HighlightColor: "a", PageNumber: 30, Text: "fourth"})
	bk.AddNote(&models.Note{HighlightColor: "a", PageNumber: 20, Text: "second"})

	data, err := RenderBook(bk, FormatObsidian, true)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	order := []string{"first", "second", "third", "fourth"}
	last := -1
	for _, s := range order {
		i := strings.Index(page, s+"(pg.")
		if i < last {
			t.Fatalf("%q out of order in:\n%s", s, page)
		}
		last = i
	}
	if bk.Notes[0].Text != "third" {
		t.Error("RenderBook must not reorder the book's notes")
	}
}

func TestRenderBook_KeepsOrderWithoutPageNumbers(t *testing.T) {
	bk := &models.Book{Meta: models.Fallback{Name: "Dune"}, HasPageNumbers: false}
	bk.AddNote(&models.Note{PageNumber: 30, Text: "one"})
	bk.AddNote(&models.Note{PageNumber: models.UnknownPage, Text: "two"})

	data, _ := RenderBook(bk, FormatObsidian, true)
	page := string(data)
	if strings.Index(page, "one(pg.") > strings.Index(page, "two(pg.") {
		t.Errorf("document order not kept:\n%s", page)
	}
}

func TestRenderBook_Layout(t *testing.T) {
	bk := &models.Book{
		FileType: "epub",
		Meta:     models.Structured{Authors: []string{"Lem"}, Title: "Solaris", Year: 1961},
	}
	bk.AddNote(&models.Note{HighlightColor: "summary", PageNumber: 1, Text: "ocean"})

	data, err := RenderBook(bk, FormatObsidian, false)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{
		"---\ngenerator: pocketnotes\nbook: Solaris\n",
		"\n---\n\n# Book info\n\nAuthors: [[Lem]]\n",
		"n_notes: 1\n\n# Notes\n\n#summary \nocean(pg. 1)\n",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}

	fm, ok := ReadFrontmatter(data)
	if !ok || fm.Generator != Generator || fm.Year != 1961 || fm.Notes != 1 || fm.FileType != "epub" {
		t.Errorf("frontmatter = %+v, %v", fm, ok)
	}
}
