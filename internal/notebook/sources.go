package notebook

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fodonfoto/MemoryLM/internal/ai"
)

// Upload is a file handed in by a client before classification.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ClassifyMIME maps a media type to a source kind. ok is false for anything
// that is not text/*, image/* or a PDF.
func ClassifyMIME(mimeType string) (kind SourceKind, ok bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasPrefix(mt, "text/"):
		return KindText, true
	case strings.HasPrefix(mt, "image/"):
		return KindImage, true
	case mt == "application/pdf":
		return KindPDF, true
	}
	return "", false
}

// DetectMIME returns the declared type, sniffing the payload when the client
// sent none or a generic one.
func DetectMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	return mimetype.Detect(data).String()
}

// StripDataURL returns the payload of a "data:<mime>;base64,<payload>" string
// and the media type it declares. Other input is returned unchanged.
func StripDataURL(s string) (payload, mimeType string) {
	if !strings.HasPrefix(s, "data:") {
		return s, ""
	}
	head, body, found := strings.Cut(s, ",")
	if !found {
		return s, ""
	}
	meta := strings.TrimPrefix(head, "data:")
	mimeType, _, _ = strings.Cut(meta, ";")
	return body, mimeType
}

// newSource classifies u and encodes its content for storage.
func newSource(u Upload) (Source, error) {
	mt := DetectMIME(u.MIMEType, u.Data)
	kind, ok := ClassifyMIME(mt)
	if !ok {
		return Source{}, fmt.Errorf("unsupported media type %q", mt)
	}
	src := Source{Name: u.Name, Kind: kind, MIMEType: mt, Size: len(u.Data)}
	if kind == KindText {
		src.Content = string(u.Data)
	} else {
		src.Content = base64.StdEncoding.EncodeToString(u.Data)
	}
	return src, nil
}

// KnowledgeBase concatenates the text sources under a header naming each one.
// Binary sources are not part of it.
func KnowledgeBase(sources []Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Kind != KindText {
			continue
		}
		parts = append(parts, "## Source: "+s.Name+"\n\n"+s.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Attachments decodes the image and PDF sources into inline parts, in source
// order.
func Attachments(sources []Source) ([]ai.Attachment, error) {
	var out []ai.Attachment
	for _, s := range sources {
		if s.Kind == KindText {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(s.Content)
		if err != nil {
			return nil, fmt.Errorf("decode source %q: %w", s.Name, err)
		}
		out = append(out, ai.Attachment{Name: s.Name, MIMEType: s.MIMEType, Data: data})
	}
	return out, nil
}
