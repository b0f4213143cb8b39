package models

// Metadata is the outcome of parsing a book file name. It is either
// Structured or Fallback.
type Metadata interface {
	DisplayName() string
	isMetadata()
}

// Structured holds the fields of an "Authors - Title (Year) - Publisher" name.
type Structured struct {
	Authors   []string `json:"authors"`
	Title     string   `json:"title"`
	Publisher string   `json:"publisher,omitempty"`
	Year      int      `json:"year"`
}

// DisplayName returns the title.
func (s Structured) DisplayName() string { return s.Title }

func (Structured) isMetadata() {}

// Fallback carries the raw name of a file that did not match the pattern.
type Fallback struct {
	Name string `json:"name"`
}

// DisplayName returns the raw name.
func (f Fallback) DisplayName() string { return f.Name }

func (Fallback) isMetadata() {}
