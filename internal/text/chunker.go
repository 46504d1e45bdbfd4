package text

import "strings"

// ChunkWords splits text into overlapping word windows. Each window holds up
// to size words and consecutive windows share overlap words; the final window
// may be shorter but is never empty. Text with fewer words than one window
// becomes a single chunk. The function is pure: same input, same output.
//
// Callers must guarantee overlap < size (validated once at startup); the
// guard here only prevents an infinite loop on a violated precondition.
func ChunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// CollapseWhitespace rewrites runs of whitespace (including newlines) as
// single spaces and trims the ends. Used to flatten extracted page text
// before chunking.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount reports the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
