package svn

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// diffStats counts added and deleted lines of one per-path block. svn emits traditional
// unified headers, which gitdiff understands; blocks it rejects fall back to a line scan.
func diffStats(block string) (additions, deletions int) {
	files, _, err := gitdiff.Parse(strings.NewReader(block))
	if err == nil && len(files) > 0 {
		for _, f := range files {
			for _, frag := range f.TextFragments {
				additions += int(frag.LinesAdded)
				deletions += int(frag.LinesDeleted)
			}
		}
		return additions, deletions
	}
	return countLines(block)
}

func countLines(block string) (additions, deletions int) {
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}
