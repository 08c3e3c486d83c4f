package ingest

import "strings"

// chunker splits long statute text into overlapping rune windows. Paragraph
// breaks are honoured before windowing.
type chunker struct {
	size    int
	overlap int
	sep     string
}

func (c chunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if c.size <= 0 || len([]rune(text)) <= c.size {
		return []string{text}
	}
	var out []string
	for _, part := range strings.Split(text, c.sep) {
		r := []rune(strings.TrimSpace(part))
		if len(r) == 0 {
			continue
		}
		for len(r) > c.size {
			out = append(out, strings.TrimSpace(string(r[:c.size])))
			r = r[c.size-c.overlap:]
		}
		out = append(out, strings.TrimSpace(string(r)))
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
