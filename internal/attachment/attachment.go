// Package attachment reconciles the attachments submitted with an entity form
// against the ones already stored for that entity.
package attachment

import (
	"path"
	"strings"
	"time"

	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
)

// Owner types are the table names of the entities that carry attachments.
const (
	OwnerIncident  = "incidents"
	OwnerCarPass   = "car_pass_requests"
	OwnerIDRequest = "id_requests"
)

type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

// Extension is the lower-cased file extension without the dot.
func (f *File) Extension() string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}

// FieldSet is one attachment entry of a submitted form.
type FieldSet struct {
	ID      string
	File    *File
	AltText string
}

// Existing is the part of a stored attachment the reconciler needs.
type Existing struct {
	ID        string
	FileKey   string
	Extension string
}

func ExistingFromRows(rows []attachmentDatamodel.Attachment) []Existing {
	existing := make([]Existing, 0, len(rows))
	for _, row := range rows {
		existing = append(existing, Existing{ID: row.ID, FileKey: row.FileKey, Extension: row.Extension})
	}
	return existing
}

type Create struct {
	ID      string
	FileKey string
	File    *File
	AltText string
}

// Update changes an attachment's metadata, and when File is set replaces its
// blob with one stored under the fresh FileKey.
type Update struct {
	ID       string
	AltText  string
	File     *File
	FileKey  string
	Previous Existing
}

func (u Update) Replaces() bool {
	return u.File != nil
}

type Plan struct {
	ToDelete []Existing
	ToUpdate []Update
	ToCreate []Create
}

func (p Plan) Empty() bool {
	return len(p.ToDelete) == 0 && len(p.ToUpdate) == 0 && len(p.ToCreate) == 0
}

// Reconcile splits the submitted entries into rows to delete, update and
// create. Stored attachments missing from submitted are deleted. Entries
// without an id need a file to be created; ids the owner does not have are
// ignored, as are repeats of an id already seen.
func Reconcile(existing []Existing, submitted []FieldSet, newKey func() string) Plan {
	byID := make(map[string]Existing, len(existing))
	for _, e := range existing {
		byID[e.ID] = e
	}

	var plan Plan
	kept := make(map[string]bool, len(submitted))

	for _, fs := range submitted {
		if fs.ID == "" {
			if fs.File == nil {
				continue
			}
			key := newKey()
			plan.ToCreate = append(plan.ToCreate, Create{ID: key, FileKey: key, File: fs.File, AltText: fs.AltText})
			continue
		}

		prev, ok := byID[fs.ID]
		if !ok || kept[fs.ID] {
			continue
		}
		kept[fs.ID] = true

		u := Update{ID: fs.ID, AltText: fs.AltText, Previous: prev}
		if fs.File != nil {
			u.File = fs.File
			u.FileKey = newKey()
		}
		plan.ToUpdate = append(plan.ToUpdate, u)
	}

	for _, e := range existing {
		if !kept[e.ID] {
			plan.ToDelete = append(plan.ToDelete, e)
		}
	}

	return plan
}

type Response struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	AltText     string    `json:"alt_text"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToResponse(row attachmentDatamodel.Attachment) Response {
	return Response{
		ID:          row.ID,
		FileName:    row.FileName,
		ContentType: row.ContentType,
		Size:        row.Size,
		AltText:     row.AltText,
		URL:         "/attachments/" + row.ID,
		CreatedAt:   row.CreatedAt,
	}
}

func ToResponses(rows []attachmentDatamodel.Attachment) []Response {
	responses := make([]Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, ToResponse(row))
	}
	return responses
}
