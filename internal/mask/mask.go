// Package mask redacts Brazilian taxpayer identifiers (CPF/CNPJ) from free
// text before it crosses into a log sink. Masking is a logging-boundary
// concern only: stored invoice values are never masked.
package mask

// Masker is a deterministic, total text transform. Every maximal run of
// exactly 11 or exactly 14 digits, optionally interleaved with the canonical
// CPF/CNPJ punctuation (dots, dash, slash), has its interior digits replaced
// by MaskRune. Punctuation stays in place and digit runs of any other length
// pass through untouched, so the output never shrinks and masking twice
// equals masking once.
type Masker struct {
	KeepLeading  int
	KeepTrailing int
	MaskRune     rune
}

// New returns a masker with the default policy: keep the first 3 and the
// last 2 digits, mask the rest with '*'.
func New() Masker {
	return Masker{KeepLeading: 3, KeepTrailing: 2, MaskRune: '*'}
}

// Mask redacts CPF/CNPJ-length digit runs in s.
func (m Masker) Mask(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))

	for i := 0; i < len(runes); {
		if !isDigit(runes[i]) {
			out = append(out, runes[i])
			i++
			continue
		}

		// Extend over digits and interleaved punctuation, then trim back to
		// the last digit so trailing punctuation stays outside the run.
		end := i
		last := i
		for end < len(runes) && (isDigit(runes[end]) || isPunct(runes[end])) {
			if isDigit(runes[end]) {
				last = end
			}
			end++
		}
		run := runes[i : last+1]

		count := 0
		for _, r := range run {
			if isDigit(r) {
				count++
			}
		}

		if count == 11 || count == 14 {
			out = append(out, m.maskRun(run, count)...)
		} else {
			out = append(out, run...)
		}
		i = last + 1
	}

	return string(out)
}

func (m Masker) maskRun(run []rune, digitCount int) []rune {
	masked := make([]rune, len(run))
	idx := 0
	for i, r := range run {
		if !isDigit(r) {
			masked[i] = r
			continue
		}
		if idx < m.KeepLeading || idx >= digitCount-m.KeepTrailing {
			masked[i] = r
		} else {
			masked[i] = m.MaskRune
		}
		idx++
	}
	return masked
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isPunct(r rune) bool {
	return r == '.' || r == '-' || r == '/'
}
