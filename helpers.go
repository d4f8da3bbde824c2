package hsext

import "strings"

// outputLines joins a process's stdout and stderr into the line list kept
// on a BuildFailure, dropping trailing blank lines.
func outputLines(res *Result) []string {
	var lines []string
	for _, stream := range []string{res.Stdout, res.Stderr} {
		stream = strings.TrimRight(stream, "\r\n")
		if stream == "" {
			continue
		}
		lines = append(lines, strings.Split(stream, "\n")...)
	}
	return lines
}
