package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role        string
	Content     string
	Attachments []Attachment
}

// Attachment is an inline binary part (image or PDF) sent with a message.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ChatSession is a conversation bound to one system instruction. Each call
// sends one user turn and streams the reply; both channels are closed when
// the reply ends.
type ChatSession interface {
	SendStream(ctx context.Context, text string, attachments []Attachment) (<-chan string, <-chan error)
}

// ChatProvider opens grounded chat sessions.
type ChatProvider interface {
	NewSession(ctx context.Context, systemInstruction string) (ChatSession, error)
}

// VideoStatus is the state of a long-running video job. Handle is opaque and
// must be passed back verbatim when polling.
type VideoStatus struct {
	Handle   string
	Done     bool
	VideoURI string
}

// Artifact is a downloaded generation result.
type Artifact struct {
	Data     []byte
	MIMEType string
}

// Studio is the generative backend behind podcast generation.
type Studio interface {
	// GenerateScript returns the raw JSON of a structured completion
	// constrained to the script schema.
	GenerateScript(ctx context.Context, prompt string, attachments []Attachment) (string, error)
	SubmitVideo(ctx context.Context, prompt string) (VideoStatus, error)
	PollVideo(ctx context.Context, handle string) (VideoStatus, error)
	Download(ctx context.Context, uri string) (*Artifact, error)
}
