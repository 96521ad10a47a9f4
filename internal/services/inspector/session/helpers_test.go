package session

import "github.com/louisbranch/demoscope/internal/services/inspector/filter"

func filterText(q string) filter.Matcher {
	return filter.Matcher{Query: q}
}

func filterRegex(q string) filter.Matcher {
	return filter.Matcher{Query: q, Regex: true}
}
