package detect

// StructuralFeatures summarizes layout glyphs the recognizer preserved:
// box-drawing characters betray a table grid, checkbox glyphs betray a form.
type StructuralFeatures struct {
	HasTable            bool `json:"has_table"`
	TableIndicatorCount int  `json:"table_indicator_count"`
	HasCheckboxes       bool `json:"has_checkboxes"`
	CheckboxCount       int  `json:"checkbox_count"`
}

var tableGlyphs = map[rune]struct{}{
	'│': {}, '┌': {}, '┐': {}, '└': {}, '┘': {},
	'├': {}, '┤': {}, '┬': {}, '┴': {}, '┼': {}, '─': {},
	'║': {}, '═': {}, '╔': {}, '╗': {}, '╚': {}, '╝': {},
	'╠': {}, '╣': {}, '╦': {}, '╩': {}, '╬': {},
}

var checkboxGlyphs = map[rune]struct{}{
	'☐': {}, '☑': {}, '☒': {},
	'■': {}, '□': {}, '▪': {}, '▫': {},
	'✓': {}, '✔': {}, '✕': {}, '✗': {},
}

// IsStructuralGlyph reports whether r is one of the table or checkbox
// glyphs ScanStructure counts.
func IsStructuralGlyph(r rune) bool {
	if _, ok := tableGlyphs[r]; ok {
		return true
	}
	_, ok := checkboxGlyphs[r]
	return ok
}

// ScanStructure counts layout glyphs in recognized text. A single stray
// glyph counts; downstream consumers weigh the counts themselves.
func ScanStructure(text string) StructuralFeatures {
	var f StructuralFeatures
	for _, r := range text {
		if _, ok := tableGlyphs[r]; ok {
			f.TableIndicatorCount++
		}
		if _, ok := checkboxGlyphs[r]; ok {
			f.CheckboxCount++
		}
	}
	f.HasTable = f.TableIndicatorCount > 0
	f.HasCheckboxes = f.CheckboxCount > 0
	return f
}
