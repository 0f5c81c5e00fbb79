// Package wordlist loads newline-delimited UTF-8 wordlists. A loaded
// list is an ordered []string shared by reference across all workers
// for the duration of a scan; nothing mutates it after Load returns.
package wordlist

import (
	"bufio"
	"os"
	"unicode/utf8"
)

// Scanner buffer cap. Some wordlists carry very long payload lines.
const maxLineLen = 1 << 20

// Load reads the file at path into an ordered slice of lines. Blank
// lines are kept (they probe the bare directory); lines that are not
// valid UTF-8 are dropped.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words := make([]string, 0, 1024)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
