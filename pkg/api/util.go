package api

import (
	"fmt"
	"net/url"
	"strings"
)

func PercentEncode(s string) string {
	s = url.QueryEscape(s)
	return strings.ReplaceAll(s, "+", "%20")
}

func sprintfPath(path string, args ...any) string {
	if len(args) == 0 {
		return path
	}

	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(arg))
	}

	return fmt.Sprintf(path, escaped...)
}
