package parser

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/testutil"
)

func testBook() *models.Book {
	return &models.Book{
		ID:       3,
		BookPath: "books/Lem - Solaris (1961).epub",
		NotePath: "notes/Solaris.html",
		Meta:     models.Structured{Authors: []string{"Lem"}, Title: "Solaris", Year: 1961},
	}
}

func parse(t *testing.T, p *Parser, doc string) *Result {
	t.Helper()
	res, err := p.Parse(strings.NewReader(doc), testBook())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return res
}

func TestParse_SkipsHeaderBlocks(t *testing.T) {
	p := New(testutil.Colors(), nil)
	doc := testutil.BookmarkHTML("Solaris",
		testutil.Block{Color: "bm-color-yellow", Page: "1", Text: "one"},
		testutil.Block{Color: "bm-color-green", Page: "2", Text: "two"},
		testutil.Block{Color: "bm-color-red", Page: "3", Text: "three"},
	)
	res := parse(t, p, doc)
	// 5 bookmark blocks in total: 2 headers + 3 highlights.
	if len(res.Notes) != 3 {
		t.Fatalf("notes = %d, want 3", len(res.Notes))
	}
	if res.Notes[0].Text != "one" || res.Notes[2].Text != "three" {
		t.Errorf("notes out of document order: %q .. %q", res.Notes[0].Text, res.Notes[2].Text)
	}
}

func TestParse_OnlyHeaders(t *testing.T) {
	res := parse(t, New(testutil.Colors(), nil), testutil.BookmarkHTML("Empty"))
	if len(res.Notes) != 0 {
		t.Errorf("notes = %d, want 0", len(res.Notes))
	}
	if !res.HasPageNumbers {
		t.Error("no notes should keep page numbers available")
	}
}

func TestParse_Fields(t *testing.T) {
	p := New(testutil.Colors(), []string{"ocean"})
	doc := testutil.BookmarkHTML("Solaris",
		testutil.Block{Color: "bm-color-magenta", Page: " 42 ", Text: "The ocean\nthinks.", Note: testutil.Ptr("is it\nalive?")},
	)
	res := parse(t, p, doc)
	n := res.Notes[0]
	if n.HighlightColor != "key_idea" {
		t.Errorf("color = %q", n.HighlightColor)
	}
	if n.PageNumber != 42 {
		t.Errorf("page = %d", n.PageNumber)
	}
	if n.Text != "The ocean thinks." {
		t.Errorf("text = %q", n.Text)
	}
	if n.Annotation == nil || *n.Annotation != "is it alive?" {
		t.Errorf("annotation = %v", n.Annotation)
	}
	if !slices.Equal(n.Tags, []string{"ocean"}) {
		t.Errorf("tags = %v", n.Tags)
	}
	if n.BookID != 3 || n.BookName != "Solaris" || n.NotePath != "notes/Solaris.html" {
		t.Errorf("book fields = %d %q %q", n.BookID, n.BookName, n.NotePath)
	}
	if n.DateCreated.IsZero() {
		t.Error("date_created not set")
	}
}

func TestParse_AnnotationAbsentVersusEmpty(t *testing.T) {
	doc := testutil.BookmarkHTML("Solaris",
		testutil.Block{Color: "bm-color-yellow", Page: "1", Text: "no note"},
		testutil.Block{Color: "bm-color-yellow", Page: "2", Text: "empty note", Note: testutil.Ptr("")},
	)
	res := parse(t, New(testutil.Colors(), nil), doc)
	if res.Notes[0].Annotation != nil {
		t.Errorf("missing element should give nil annotation, got %q", *res.Notes[0].Annotation)
	}
	if res.Notes[1].Annotation == nil || *res.Notes[1].Annotation != "" {
		t.Errorf("empty element should give empty annotation, got %v", res.Notes[1].Annotation)
	}
}

func TestParse_PageNumberFallbackIsBookWide(t *testing.T) {
	doc := testutil.BookmarkHTML("Solaris",
		testutil.Block{Color: "bm-color-yellow", Page: "iv", Text: "preface"},
		testutil.Block{Color: "bm-color-yellow", Page: "12", Text: "chapter one"},
	)
	res := parse(t, New(testutil.Colors(), nil), doc)
	if res.Notes[0].PageNumber != models.UnknownPage {
		t.Errorf("page = %d, want %d", res.Notes[0].PageNumber, models.UnknownPage)
	}
	if res.Notes[1].PageNumber != 12 {
		t.Errorf("page = %d, want 12", res.Notes[1].PageNumber)
	}
	if res.HasPageNumbers {
		t.Error("HasPageNumbers should stay false after a later valid page")
	}
}

func TestParse_UnmappedColor(t *testing.T) {
	doc := testutil.BookmarkHTML("Solaris",
		testutil.Block{Color: "bm-color-yellow", Page: "1", Text: "fine"},
		testutil.Block{Color: "bm-color-purple", Page: "2", Text: "unknown"},
	)
	_, err := New(testutil.Colors(), nil).Parse(strings.NewReader(doc), testBook())
	if !errors.Is(err, apperr.ErrUnmappedColor) {
		t.Fatalf("err = %v, want ErrUnmappedColor", err)
	}
	var uce *UnmappedColorError
	if !errors.As(err, &uce) {
		t.Fatalf("err is not *UnmappedColorError: %T", err)
	}
	if uce.Color != "bm-color-purple" || uce.Block != 3 {
		t.Errorf("error = %+v", uce)
	}
}

func TestColorToken_MissingSecondClass(t *testing.T) {
	doc := `<html><body>
<div class="bookmark"></div><div class="bookmark"></div>
<div class="bookmark"><p class="bm-page">1</p><div class="bm-text">x</div></div>
</body></html>`
	_, err := New(testutil.Colors(), nil).Parse(strings.NewReader(doc), testBook())
	if !errors.Is(err, apperr.ErrUnmappedColor) {
		t.Fatalf("err = %v, want ErrUnmappedColor", err)
	}
}

func TestInferTags(t *testing.T) {
	tags := InferTags("I love AI research", nil, []string{"AI", "cats"})
	if !slices.Equal(tags, []string{"AI"}) {
		t.Errorf("tags = %v, want [AI]", tags)
	}
}

func TestInferTags_NoneIsNil(t *testing.T) {
	if tags := InferTags("nothing here", testutil.Ptr("or here"), []string{"AI"}); tags != nil {
		t.Errorf("tags = %v, want nil", tags)
	}
}

func TestInferTags_AnnotationAndSubstring(t *testing.T) {
	vocab := []string{"cat", "machine learning", "Snowball Earth"}
	tags := InferTags("concatenate", testutil.Ptr("see machine learning"), vocab)
	if !slices.Equal(tags, []string{"cat", "machine learning"}) {
		t.Errorf("tags = %v", tags)
	}
}

func TestInferTags_CaseSensitive(t *testing.T) {
	if tags := InferTags("ai is everywhere", nil, []string{"AI"}); tags != nil {
		t.Errorf("tags = %v, want nil", tags)
	}
}
