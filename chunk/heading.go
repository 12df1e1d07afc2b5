package chunk

import "regexp"

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)

// splitHeading cuts a Markdown document at its headings. Each chunk spans
// from one heading to the next and carries the heading text and level in its
// metadata. Content before the first heading, or a document with no headings
// at all, becomes a level-zero chunk.
func splitHeading(text string) []Candidate {
	locs := headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		c := candidate(text, 0, len(text))
		c.Metadata = map[string]any{"heading": "", "level": 0}
		return []Candidate{c}
	}
	var out []Candidate
	if locs[0][0] > 0 {
		c := candidate(text, 0, locs[0][0])
		c.Metadata = map[string]any{"heading": "", "level": 0}
		out = append(out, c)
	}
	for i, m := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		c := candidate(text, m[0], end)
		c.Metadata = map[string]any{
			"heading": text[m[4]:m[5]],
			"level":   m[3] - m[2],
		}
		out = append(out, c)
	}
	return out
}
