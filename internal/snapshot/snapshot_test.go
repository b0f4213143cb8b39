package snapshot

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "pocketnotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func sampleCollection() *collection.Collection {
	c := collection.New()
	created := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)

	dune := &models.Book{
		ID:             0,
		BookPath:       "books/Herbert, Frank - Dune (1965) - Chilton.epub",
		NotePath:       "notes/Dune.html",
		FileType:       "epub",
		Meta:           models.Structured{Authors: []string{"Herbert", "Frank"}, Title: "Dune", Publisher: "Chilton", Year: 1965},
		HasPageNumbers: true,
		NoteChecksum:   "c1",
	}
	sol := &models.Book{
		ID:           1,
		BookPath:     "books/Solaris.fb2",
		NotePath:     "notes/Solaris.html",
		FileType:     "fb2",
		Meta:         models.Fallback{Name: "Solaris"},
		NoteChecksum: "c2",
	}
	c.AddBook(dune)
	c.AddBook(sol)
	c.AddNotes(dune, []*models.Note{
		{HighlightColor: "key_idea", PageNumber: 12, Text: "Fear is the mind-killer", Annotation: ptr("litany"),
			Tags: []string{"fear"}, BookID: 0, NotePath: dune.NotePath, BookPath: dune.BookPath, BookName: "Dune", DateCreated: created},
		{HighlightColor: "standard", PageNumber: 40, Text: "The spice must flow", Annotation: ptr(""),
			BookID: 0, NotePath: dune.NotePath, BookPath: dune.BookPath, BookName: "Dune", DateCreated: created},
	})
	c.AddNotes(sol, []*models.Note{
		{HighlightColor: "summary", PageNumber: models.UnknownPage, Text: "the ocean thinks",
			BookID: 1, NotePath: sol.NotePath, BookPath: sol.BookPath, BookName: "Solaris", DateCreated: created},
	})
	return c
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"books", "notes", "meta"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestLoad_NeverSaved(t *testing.T) {
	db := testDB(t)
	if _, err := db.Load(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.SavedAt(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("SavedAt err = %v, want ErrNotFound", err)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	db := testDB(t)
	want := sampleCollection()
	if err := db.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Books) != 2 || got.Len() != 3 {
		t.Fatalf("books = %d, notes = %d", len(got.Books), got.Len())
	}

	dune := got.Books[0]
	s, ok := dune.Meta.(models.Structured)
	if !ok || s.Title != "Dune" || s.Year != 1965 || len(s.Authors) != 2 {
		t.Errorf("dune meta = %#v", dune.Meta)
	}
	if !dune.HasPageNumbers || dune.NoteChecksum != "c1" || dune.FileType != "epub" {
		t.Errorf("dune = %+v", dune)
	}
	if _, ok := got.Books[1].Meta.(models.Fallback); !ok || got.Books[1].HasPageNumbers {
		t.Errorf("solaris = %+v", got.Books[1])
	}

	if len(dune.Notes) != 2 || dune.Notes[0] != got.Notes[0] {
		t.Fatal("book back references not restored")
	}

	first := got.Notes[0]
	if first.Annotation == nil || *first.Annotation != "litany" || len(first.Tags) != 1 {
		t.Errorf("first note = %+v", first)
	}
	if !first.DateCreated.Equal(want.Notes[0].DateCreated) {
		t.Errorf("date = %v, want %v", first.DateCreated, want.Notes[0].DateCreated)
	}
	if got.Notes[1].Annotation == nil || *got.Notes[1].Annotation != "" {
		t.Error("present-but-empty annotation must survive")
	}
	if got.Notes[2].Annotation != nil || got.Notes[2].Tags != nil {
		t.Errorf("absent annotation/tags must stay nil: %+v", got.Notes[2])
	}
	if got.Notes[2].PageNumber != models.UnknownPage {
		t.Errorf("page = %d", got.Notes[2].PageNumber)
	}
}

func TestSave_ReplacesPrevious(t *testing.T) {
	db := testDB(t)
	if err := db.Save(sampleCollection()); err != nil {
		t.Fatal(err)
	}
	first, _ := db.SavedAt()

	smaller := collection.New()
	b := &models.Book{ID: 0, BookPath: "books/x.pdf", NotePath: "notes/x.html", Meta: models.Fallback{Name: "x"}}
	smaller.AddBook(b)
	if err := db.Save(smaller); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Books) != 1 || got.Len() != 0 {
		t.Errorf("books = %d, notes = %d; want 1, 0", len(got.Books), got.Len())
	}
	second, _ := db.SavedAt()
	if second.Before(first) {
		t.Errorf("saved_at went backwards: %v < %v", second, first)
	}
}

func TestNoteChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.Save(sampleCollection())
	cs, err := db.NoteChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if cs["notes/Dune.html"] != "c1" || cs["notes/Solaris.html"] != "c2" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.Save(sampleCollection())

	hits, err := db.Search("ocean", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].BookID != 1 || hits[0].BookName != "Solaris" {
		t.Errorf("hits = %+v, want 1 hit in Solaris", hits)
	}
}

func TestSearch_Annotation(t *testing.T) {
	db := testDB(t)
	_ = db.Save(sampleCollection())

	hits, err := db.Search("litany", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].PageNumber != 12 {
		t.Errorf("hits = %+v", hits)
	}
}
