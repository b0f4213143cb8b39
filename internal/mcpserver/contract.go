package mcpserver

import (
	"strings"

	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/vault"
)

// ExportFormatContract describes the Markdown page written for every book
// and the note fields accepted by query_notes.
var ExportFormatContract = exportFormat + "\n## Queryable fields\n\n- " +
	strings.Join(collection.Fields(), "\n- ") + "\n"

const exportFormat = `# PocketNotes Export Format

One Markdown page is written per book into the vault. The page name is the
book's display name with path separators replaced by ` + "`" + `-` + "`" + `.

## Structure

` + "```" + `markdown
---
generator: ` + vault.Generator + `    # marks pages owned by the exporter
book: Dune
authors:
  - Frank Herbert
publisher: Chilton
year: 1965
file_type: epub
notes: 2
---

# Book info

Authors: [[Frank Herbert]]
Publisher: Chilton
Year: 1965
n_notes: 2

# Notes

#standard [[spice]] 
The spice must flow(pg. 40)

#key_idea 
Fear is the mind-killer(pg. 12)
#note
	litany
` + "```" + `

## Rules

1. Each note starts with ` + "`" + `#<color tag>` + "`" + ` followed by its tags as ` + "`" + `[[wikilinks]]` + "`" + `.
2. The highlighted text follows on the next line, ending in ` + "`" + `(pg. N)` + "`" + ` (-1 when the page is unknown).
3. An annotation is written under a ` + "`" + `#note` + "`" + ` line, indented by one tab.
4. Notes are ordered by page when every highlight of the book carries one,
   otherwise in the order they were made.
5. Books whose name could not be parsed show only their display name under
   ` + "`" + `# Book info` + "`" + `.
6. Pages without the ` + "`" + `generator` + "`" + ` marker are never overwritten.
`
