package ocr

import "unicode"

// minAlnumRunes is the floor below which recognizer output is considered a
// failed read rather than a short document.
const minAlnumRunes = 20

// maxNoiseRatio bounds how much punctuation and symbol soup we tolerate
// relative to alphanumeric content before declaring the text garbage.
const maxNoiseRatio = 3.0

// countRunes tallies alphanumeric and other printable non-space runes.
func countRunes(text string) (alnum, other int) {
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum++
		case unicode.IsSpace(r):
		default:
			other++
		}
	}
	return alnum, other
}

// LowConfidence reports whether extracted text is too poor to trust,
// independent of any confidence the engine itself reported. Empty output,
// fewer than 20 alphanumeric runes, or symbol noise dominating letters
// three to one all count as unusable.
func LowConfidence(text string) bool {
	alnum, other := countRunes(text)
	if alnum == 0 {
		return true
	}
	if alnum < minAlnumRunes {
		return true
	}
	return float64(other)/float64(alnum) > maxNoiseRatio
}

// heuristicConfidence scores text quality in [0,1] for engines that report
// no confidence of their own. The base rewards volume of alphanumeric
// content; the noise ratio discounts it.
func heuristicConfidence(text string) float32 {
	alnum, other := countRunes(text)
	if alnum == 0 {
		return 0
	}
	base := float32(0.5)
	if alnum >= 200 {
		base = 0.8
	} else if alnum >= 50 {
		base = 0.65
	}
	ratio := float32(other) / float32(alnum)
	if ratio > 1 {
		base -= 0.1 * (ratio - 1)
	}
	if base < 0.05 {
		base = 0.05
	}
	return base
}
