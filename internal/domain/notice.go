package domain

import "time"

// Notice is one Joconde museum-collection entry mapped to the staging schema.
type Notice struct {
	Reference    *string `db:"reference" json:"reference"`
	Appellation  *string `db:"appellation" json:"appellation"`
	Auteur       *string `db:"auteur" json:"auteur"`
	DateCreation *string `db:"date_creation" json:"date_creation"`
	Denomination *string `db:"denomination" json:"denomination"`
	Region       *string `db:"region" json:"region"`
	Departement  *string `db:"departement" json:"departement"`
	Ville        *string `db:"ville" json:"ville"`
	Description  *string `db:"description" json:"description"`
}

// NoticeFields lists the staging columns in insertion order.
var NoticeFields = []string{
	"reference",
	"appellation",
	"auteur",
	"date_creation",
	"denomination",
	"region",
	"departement",
	"ville",
	"description",
}

// Field returns a pointer to the notice field with the given column name,
// or nil if the name is not part of the schema.
func (n *Notice) Field(name string) **string {
	switch name {
	case "reference":
		return &n.Reference
	case "appellation":
		return &n.Appellation
	case "auteur":
		return &n.Auteur
	case "date_creation":
		return &n.DateCreation
	case "denomination":
		return &n.Denomination
	case "region":
		return &n.Region
	case "departement":
		return &n.Departement
	case "ville":
		return &n.Ville
	case "description":
		return &n.Description
	}
	return nil
}

// Values returns the field values in NoticeFields order, with nil for
// absent fields.
func (n *Notice) Values() []any {
	values := make([]any, 0, len(NoticeFields))
	for _, name := range NoticeFields {
		if v := *n.Field(name); v != nil {
			values = append(values, *v)
		} else {
			values = append(values, nil)
		}
	}
	return values
}

// Entry is one position of a batch. Err is set when the source element
// could not be mapped to a Notice.
type Entry struct {
	Notice Notice
	Err    error
}

// Batch is the ordered record set parsed from one file.
type Batch struct {
	Path    string
	Entries []Entry
}

// IncomingFile is a file picked up by the watcher.
type IncomingFile struct {
	Path       string
	DetectedAt time.Time
}

// LoadAudit holds the audit columns written alongside every notice.
type LoadAudit struct {
	RunID        string    `db:"run_id"`
	SourceFile   string    `db:"source_file"`
	SourceSystem string    `db:"source_system"`
	LoadProcess  string    `db:"load_process"`
	LoadedAt     time.Time `db:"load_timestamp_utc"`
}
