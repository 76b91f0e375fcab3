package notebook

import "strings"

const (
	AssistantName = "NotebookAI"
	// RefusalReply is what the assistant says when the sources do not cover a question.
	RefusalReply = "I cannot answer this question based on the provided sources."
	// ChatErrorReply replaces an assistant turn whose reply failed.
	ChatErrorReply = "Sorry, an error occurred."
)

// SystemInstruction builds the grounding preamble of a chat session over kb.
func SystemInstruction(kb string) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant. Your name is ")
	b.WriteString(AssistantName)
	b.WriteString(". You will answer user questions based *only* on the provided sources (text, images, and PDFs). ")
	b.WriteString(`If the answer is not in the sources, say "`)
	b.WriteString(RefusalReply)
	b.WriteString(`" Do not use any external knowledge. Here are the text sources:`)
	b.WriteString("\n\n")
	b.WriteString(kb)
	return b.String()
}

// ScriptPrompt asks for the two-host podcast script and the video directive.
func ScriptPrompt(kb string) string {
	return `Based on the following source material (text, images, PDFs), generate a JSON object with two keys: "script" and "videoPrompt".
1.  "script": A detailed, conversational podcast script in THAI language between a male host (พิธีกรชาย) and a female host (พิธีกรหญิง). The script should be comprehensive, aiming for a duration of up to 20 minutes, summarizing all key information from the sources in an engaging way.
2.  "videoPrompt": A detailed, multi-paragraph descriptive prompt in ENGLISH for an AI video generator. This prompt should guide the creation of a long-form narrated video, potentially up to 20 minutes long. It must summarize all core themes and visuals from the podcast script. Describe scenes, pacing, and visual elements to match a long-form, documentary-style format.

Source Material:
` + kb
}
