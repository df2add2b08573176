package render

import "strings"

// Chunk splits blocks into pages of at most wordsPerPage words, cutting
// blocks at word boundaries when needed.
func Chunk(blocks []Block, wordsPerPage int) [][]Block {
	if wordsPerPage <= 0 {
		return [][]Block{blocks}
	}
	var pages [][]Block
	var page []Block
	used := 0
	for _, b := range blocks {
		words := strings.Fields(b.Text)
		if len(words) == 0 {
			page = append(page, b)
			continue
		}
		for len(words) > 0 {
			if used == wordsPerPage {
				pages = append(pages, page)
				page, used = nil, 0
			}
			n := min(wordsPerPage-used, len(words))
			frag := b
			frag.Text = strings.Join(words[:n], " ")
			page = append(page, frag)
			used += n
			words = words[n:]
		}
	}
	if len(page) > 0 || len(pages) == 0 {
		pages = append(pages, page)
	}
	return pages
}

func pageWords(page []Block) int {
	n := 0
	for _, b := range page {
		n += b.Words()
	}
	return n
}

// Paginate chunks blocks and folds any page under minWords into the page
// before it, so no near-empty page survives. A lone first page is kept.
// Short pages are merged rather than dropped, so their text is never lost;
// the page that absorbs one may run past wordsPerPage by up to minWords-1.
func Paginate(blocks []Block, wordsPerPage, minWords int) [][]Block {
	chunks := Chunk(blocks, wordsPerPage)
	out := make([][]Block, 0, len(chunks))
	for i, c := range chunks {
		if i > 0 && pageWords(c) < minWords {
			out[len(out)-1] = append(out[len(out)-1], c...)
			continue
		}
		out = append(out, c)
	}
	return out
}
