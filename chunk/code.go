package chunk

import "strings"

const fence = "```"

// splitCodeAware keeps fenced code blocks intact as single chunks, tagged
// with their language, and splits the prose around them recursively. An
// unterminated fence swallows the rest of the document as code.
func splitCodeAware(text string, p Params) []Candidate {
	var out []Candidate
	pos := 0
	for pos < len(text) {
		open := strings.Index(text[pos:], fence)
		if open < 0 {
			out = append(out, proseCandidates(text, span{pos, len(text)}, p)...)
			break
		}
		open += pos
		if open > pos {
			out = append(out, proseCandidates(text, span{pos, open}, p)...)
		}

		infoEnd := strings.IndexByte(text[open:], '\n')
		if infoEnd < 0 {
			out = append(out, codeCandidate(text, span{open, len(text)}, strings.TrimSpace(text[open+len(fence):])))
			break
		}
		infoEnd += open
		lang := strings.TrimSpace(text[open+len(fence) : infoEnd])

		closeIdx := strings.Index(text[infoEnd:], fence)
		if closeIdx < 0 {
			out = append(out, codeCandidate(text, span{open, len(text)}, lang))
			break
		}
		end := infoEnd + closeIdx + len(fence)
		if end < len(text) && text[end] == '\n' {
			end++
		}
		out = append(out, codeCandidate(text, span{open, end}, lang))
		pos = end
	}
	return out
}

func proseCandidates(text string, s span, p Params) []Candidate {
	return toCandidates(text, recurseSpans(text, s, recursiveSeparators, p.chunkSize(), p.Overlap))
}

func codeCandidate(text string, s span, lang string) Candidate {
	c := candidate(text, s.start, s.end)
	c.Metadata = map[string]any{"type": "code", "language": lang}
	return c
}
