package chunk

// recursiveSeparators is the ordered fallback ladder: paragraph breaks,
// line breaks, sentence ends, words, then hard byte cuts.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitRecursive splits on the coarsest separator that yields pieces no
// larger than ChunkSize, recursing into oversized pieces with the next
// separator. Separators stay attached to the piece on their left so offsets
// remain exact.
func splitRecursive(text string, p Params) []Candidate {
	spans := recurseSpans(text, span{0, len(text)}, recursiveSeparators, p.chunkSize(), p.Overlap)
	return toCandidates(text, spans)
}

func recurseSpans(text string, s span, seps []string, size, overlap int) []span {
	if s.end-s.start <= size {
		return []span{s}
	}
	sep := seps[0]
	if sep == "" {
		return hardCut(s, size, overlap)
	}
	pieces := splitAfter(text, s, sep)
	if len(pieces) == 1 {
		return recurseSpans(text, s, seps[1:], size, overlap)
	}

	var out []span
	var good []span
	flush := func() {
		if len(good) > 0 {
			out = append(out, mergeSpans(good, size, overlap)...)
			good = nil
		}
	}
	for _, piece := range pieces {
		if piece.end-piece.start > size {
			flush()
			out = append(out, recurseSpans(text, piece, seps[1:], size, overlap)...)
			continue
		}
		good = append(good, piece)
	}
	flush()
	return out
}
