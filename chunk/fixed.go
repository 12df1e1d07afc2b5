package chunk

// splitFixed cuts text into fixed-size windows. Consecutive windows share
// Overlap bytes.
func splitFixed(text string, p Params) []Candidate {
	return toCandidates(text, hardCut(span{0, len(text)}, p.chunkSize(), p.Overlap))
}

// splitSentence packs whole sentences into chunks of at most ChunkSize
// bytes. A sentence longer than ChunkSize becomes its own chunk rather than
// being cut mid-sentence.
func splitSentence(text string, p Params) []Candidate {
	return toCandidates(text, mergeSpans(sentenceSpans(text), p.chunkSize(), p.Overlap))
}

// splitParagraph packs whole paragraphs, delimited by blank lines, into
// chunks of at most ChunkSize bytes. The blank-line separator stays attached
// to the preceding paragraph.
func splitParagraph(text string, p Params) []Candidate {
	paras := splitAfter(text, span{0, len(text)}, "\n\n")
	return toCandidates(text, mergeSpans(paras, p.chunkSize(), p.Overlap))
}

// splitSentenceWindow emits chunks of WindowSize consecutive sentences.
// Windows advance by WindowSize - Overlap sentences (at least one), so a
// positive Overlap repeats that many trailing sentences at the start of the
// next chunk. The final window may hold fewer sentences.
func splitSentenceWindow(text string, p Params) []Candidate {
	w := p.WindowSize
	if w <= 0 {
		w = defaultWindowSize
	}
	stride := w - p.Overlap
	if stride < 1 {
		stride = 1
	}
	sents := sentenceSpans(text)
	var out []Candidate
	for i := 0; i < len(sents); i += stride {
		hi := min(len(sents), i+w)
		c := candidate(text, sents[i].start, sents[hi-1].end)
		c.Metadata = map[string]any{
			"sentence_start": i,
			"sentence_count": hi - i,
		}
		out = append(out, c)
		if hi == len(sents) {
			break
		}
	}
	return out
}
