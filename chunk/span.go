package chunk

import "strings"

// span is a half-open byte range into the input text.
type span struct {
	start, end int
}

// sentenceSpans segments text into sentence spans. A sentence ends after a
// run of terminal punctuation followed by whitespace; the whitespace stays
// attached to the sentence so the spans cover text exactly.
func sentenceSpans(text string) []span {
	var out []span
	start := 0
	i := 0
	n := len(text)
	for i < n {
		if !isTerminal(text[i]) {
			i++
			continue
		}
		j := i + 1
		for j < n && isTerminal(text[j]) {
			j++
		}
		if j < n && isSpace(text[j]) {
			for j < n && isSpace(text[j]) {
				j++
			}
			out = append(out, span{start, j})
			start = j
		}
		i = j
	}
	if start < n {
		out = append(out, span{start, n})
	}
	return out
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// splitAfter cuts s at every occurrence of sep, keeping the separator
// attached to the piece on its left. The pieces cover s exactly.
func splitAfter(text string, s span, sep string) []span {
	var out []span
	start := s.start
	for start < s.end {
		idx := strings.Index(text[start:s.end], sep)
		if idx < 0 {
			out = append(out, span{start, s.end})
			break
		}
		end := start + idx + len(sep)
		out = append(out, span{start, end})
		start = end
	}
	return out
}

// mergeSpans greedily packs contiguous pieces into chunks of at most size
// bytes. When overlap is positive, trailing pieces totalling at most overlap
// bytes are carried into the next chunk. A single piece larger than size
// becomes its own chunk.
func mergeSpans(pieces []span, size, overlap int) []span {
	var out []span
	var cur []span
	total := 0
	for _, p := range pieces {
		plen := p.end - p.start
		if total+plen > size && len(cur) > 0 {
			out = append(out, span{cur[0].start, cur[len(cur)-1].end})
			for len(cur) > 0 && (total > overlap || total+plen > size) {
				total -= cur[0].end - cur[0].start
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += plen
	}
	if len(cur) > 0 {
		out = append(out, span{cur[0].start, cur[len(cur)-1].end})
	}
	return out
}

// hardCut slices s into fixed windows of size bytes with the given overlap.
func hardCut(s span, size, overlap int) []span {
	stride := size - overlap
	var out []span
	for start := s.start; start < s.end; start += stride {
		end := start + size
		if end > s.end {
			end = s.end
		}
		out = append(out, span{start, end})
		if end == s.end {
			break
		}
	}
	return out
}

func toCandidates(text string, spans []span) []Candidate {
	out := make([]Candidate, len(spans))
	for i, s := range spans {
		out[i] = candidate(text, s.start, s.end)
	}
	return out
}
