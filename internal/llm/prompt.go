package llm

import "strings"

// BuildNormalizePrompt composes the fixed repair instruction around the raw
// recognized text. The categories to preserve and to delete are enumerated
// explicitly: the model must never lose document numbers, dates, tables or
// checkbox glyphs while stripping recognition garbage.
func BuildNormalizePrompt(text string) string {
	parts := []string{
		"You are a text correction expert for scanned Russian business documents.",
		"INPUT: OCR text with recognition errors.",
		"YOUR TASK:",
		"1. Fix recognition errors in Russian words.",
		"2. Remove token sequences with no recognizable lexical structure (OCR garbage).",
		"3. PRESERVE unchanged: document and claim numbers, dates, tables and their delimiters, checkbox glyphs, headings, equipment model codes.",
		"4. Keep the line structure of the document.",
		"Return ONLY the corrected text, no commentary.",
		"",
		"TEXT:",
		text,
		"",
		"CORRECTED TEXT:",
	}
	return strings.Join(parts, "\n")
}

// BuildVisionPrompt is the instruction for the secondary multimodal engine:
// a full transcription plus the structural marks it can see.
func BuildVisionPrompt() string {
	return strings.Join([]string{
		"You are an OCR system for Russian service documents.",
		"Transcribe ALL text visible in the image, preserving line breaks and table layout.",
		"Also report which checkboxes are marked.",
		"Return ONLY a JSON object of this shape:",
		`{"text": "full transcription", "checkboxes": {"checked": 0, "unchecked": 0}}`,
		"If you cannot produce JSON, return the plain transcription.",
	}, "\n")
}
