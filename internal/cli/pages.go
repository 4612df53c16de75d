package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parsePages parses a page selection like "1,3,5-8" into a strictly
// ascending list of page numbers. Duplicates collapse; ranges are
// inclusive.
func parsePages(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parsePageNumber(lo)
			if err != nil {
				return nil, err
			}
			end, err := parsePageNumber(hi)
			if err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := start; p <= end; p++ {
				seen[p] = true
			}
			continue
		}

		p, err := parsePageNumber(part)
		if err != nil {
			return nil, err
		}
		seen[p] = true
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePageNumber(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	return p, nil
}

// formatPages renders a page list compactly, e.g. [1 2 3 5] → "1-3,5".
func formatPages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}

	var b strings.Builder
	start, prev := pages[0], pages[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}
