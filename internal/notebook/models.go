package notebook

import "time"

// Notebook groups sources, the conversation and one generation job.
// SourceRevision is bumped on every change to the source collection.
type Notebook struct {
	ID             string    `gorm:"primaryKey;size:26" json:"id"`
	Title          string    `gorm:"type:varchar(255)" json:"title"`
	SourceRevision int64     `gorm:"not null;default:0" json:"source_revision"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type SourceKind string

const (
	KindText  SourceKind = "text"
	KindImage SourceKind = "image"
	KindPDF   SourceKind = "pdf"
)

// Source is immutable once stored. Content is the decoded text for text
// sources and bare base64 (no data-URL prefix) for binary ones.
type Source struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NotebookID string     `gorm:"size:26;index;not null" json:"notebook_id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Kind       SourceKind `gorm:"type:varchar(8);not null" json:"kind"`
	MIMEType   string     `gorm:"type:varchar(127);not null" json:"mime_type"`
	Content    string     `gorm:"type:longtext;not null" json:"-"`
	Size       int        `json:"size"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Source) TableName() string { return "notebook_sources" }

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type TurnStatus string

const (
	TurnComplete  TurnStatus = "complete"
	TurnStreaming TurnStatus = "streaming"
	TurnFailed    TurnStatus = "error"
)

// Turn is one entry of the conversation log. The assistant turn of an
// in-flight reply is rewritten in place as chunks arrive.
type Turn struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NotebookID string     `gorm:"size:26;index;not null" json:"notebook_id"`
	Role       string     `gorm:"type:varchar(16);not null" json:"role"`
	Text       string     `gorm:"type:longtext;not null" json:"text"`
	Status     TurnStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Turn) TableName() string { return "notebook_turns" }

// Models lists the tables to migrate.
func Models() []any {
	return []any{&Notebook{}, &Source{}, &Turn{}, &GenerationJob{}}
}
