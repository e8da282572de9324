package ocr

import (
	"strings"
	"unicode"

	"github.com/MaksimPopov64/ocr-drw/internal/detect"
)

// confusionPairs maps recognizer confusions common on mixed Cyrillic and
// Latin business documents. Substitutions apply only inside runs that are
// otherwise Cyrillic, so genuine Latin tokens survive.
var confusionPairs = map[rune]rune{
	'a': 'а',
	'A': 'А',
	'B': 'В',
	'c': 'с',
	'C': 'С',
	'e': 'е',
	'E': 'Е',
	'H': 'Н',
	'K': 'К',
	'M': 'М',
	'o': 'о',
	'O': 'О',
	'p': 'р',
	'P': 'Р',
	'T': 'Т',
	'x': 'х',
	'X': 'Х',
	'y': 'у',
}

// minLetterRatio is the share of letters a line must carry to survive the
// garbage-line filter. Lines of pure punctuation debris fall below it.
const minLetterRatio = 0.3

func isCyrillic(r rune) bool {
	return unicode.Is(unicode.Cyrillic, r)
}

// fixConfusions rewrites lone Latin look-alikes embedded in Cyrillic words.
func fixConfusions(word string) string {
	runes := []rune(word)
	cyr := 0
	for _, r := range runes {
		if isCyrillic(r) {
			cyr++
		}
	}
	if cyr == 0 {
		return word
	}
	for i, r := range runes {
		if repl, ok := confusionPairs[r]; ok {
			runes[i] = repl
		}
	}
	return string(runes)
}

// garbageLine reports a line the recognizer most likely invented: long
// enough to matter, yet nearly letter-free. Table and checkbox glyphs count
// as content so glyph-only form rows survive for the structure scan.
func garbageLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 4 {
		return false
	}
	letters, total := 0, 0
	digits := 0
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || detect.IsStructuralGlyph(r) {
			letters++
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return true
	}
	// Numeric lines (claim numbers, sums, dates) are kept regardless.
	if float64(digits)/float64(total) > 0.5 {
		return false
	}
	return float64(letters)/float64(total) < minLetterRatio
}

// CleanRecognitionNoise applies cheap deterministic repairs before any model
// sees the text: per-word confusion fixes and removal of punctuation-debris
// lines. It never changes numbers.
func CleanRecognitionNoise(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if garbageLine(line) {
			continue
		}
		words := strings.Fields(line)
		for i, w := range words {
			words[i] = fixConfusions(w)
		}
		if len(words) == 0 {
			if strings.TrimSpace(line) == "" && len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			continue
		}
		out = append(out, strings.Join(words, " "))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
