package app

import (
	"strings"
	"unicode/utf8"
)

// tracedQueryLimit caps the db.statement attribute on snapshot queries.
const tracedQueryLimit = 512

// traceQuery puts multi-line SQL on one line and cuts it on a rune boundary.
func traceQuery(query string) string {
	compact := strings.Join(strings.Fields(query), " ")
	if len(compact) <= tracedQueryLimit {
		return compact
	}
	cut := tracedQueryLimit
	for cut > 0 && !utf8.RuneStart(compact[cut]) {
		cut--
	}
	return compact[:cut] + "..."
}
