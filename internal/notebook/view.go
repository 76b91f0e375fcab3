package notebook

import "context"

// Fixed interface text.
const (
	PlaceholderNoSources   = "Please add sources first"
	PlaceholderWithSources = "Type your message..."
	ChatEmptyNoSources     = "Upload sources to begin chatting."
	ChatEmptyWithSources   = "Ask a question about your sources."
	SourcesEmptyText       = "Upload files to start"
	ButtonGenerate         = "Generate Podcast"
	ButtonGenerating       = "Generating..."
	GenerationErrorPrefix  = "Error generating podcast: "
)

type SourcesPanel struct {
	Sources   []Source `json:"sources"`
	EmptyText string   `json:"empty_text,omitempty"`
}

type ChatPanel struct {
	Turns        []Turn `json:"turns"`
	InputEnabled bool   `json:"input_enabled"`
	Placeholder  string `json:"placeholder"`
	// EmptyText is shown while the conversation is empty.
	EmptyText string `json:"empty_text,omitempty"`
	Busy      bool   `json:"busy"`
}

type ToolsPanel struct {
	CanGenerate  bool           `json:"can_generate"`
	ButtonLabel  string         `json:"button_label"`
	ProgressNote string         `json:"progress_note,omitempty"`
	ErrorText    string         `json:"error_text,omitempty"`
	Job          *GenerationJob `json:"job"`
}

// View is the full application state of one notebook as a UI renders it.
type View struct {
	Notebook *Notebook    `json:"notebook"`
	Sources  SourcesPanel `json:"sources"`
	Chat     ChatPanel    `json:"chat"`
	Tools    ToolsPanel   `json:"tools"`
}

// BuildView derives panel state from the stored records.
func BuildView(nb *Notebook, sources []Source, turns []Turn, job *GenerationJob, chatBusy bool) *View {
	has := len(sources) > 0
	v := &View{
		Notebook: nb,
		Sources:  SourcesPanel{Sources: sources},
		Chat: ChatPanel{
			Turns:        turns,
			InputEnabled: has && !chatBusy,
			Placeholder:  PlaceholderNoSources,
			Busy:         chatBusy,
		},
		Tools: ToolsPanel{Job: job, ButtonLabel: ButtonGenerate},
	}
	if v.Sources.Sources == nil {
		v.Sources.Sources = []Source{}
	}
	if v.Chat.Turns == nil {
		v.Chat.Turns = []Turn{}
	}
	if !has {
		v.Sources.EmptyText = SourcesEmptyText
	}
	if has {
		v.Chat.Placeholder = PlaceholderWithSources
	}
	if len(turns) == 0 {
		v.Chat.EmptyText = ChatEmptyNoSources
		if has {
			v.Chat.EmptyText = ChatEmptyWithSources
		}
	}

	status := JobIdle
	if job != nil {
		status = job.Status
	}
	v.Tools.CanGenerate = has && status.CanStart()
	if status.Running() {
		v.Tools.ButtonLabel = ButtonGenerating
		v.Tools.ProgressNote = job.LatestNote()
	}
	if status == JobError {
		v.Tools.ErrorText = GenerationErrorPrefix + job.Error
	}
	return v
}

func (s *Service) View(ctx context.Context, notebookID string) (*View, error) {
	nb, err := s.repo.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	sources, err := s.repo.ListSources(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	turns, err := s.repo.ListTurns(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetJob(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	return BuildView(nb, sources, turns, job, s.ChatBusy(notebookID)), nil
}
