package moderation

import (
	"bufio"
	"bytes"
	"chat-hub/errors"
	"io/fs"
	"path"
	"strings"
)

// CensoredData carries the loaded words and the dictionaries they came from, for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads censored word dictionaries, one .txt file per language and one word per line.
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// LoadAll reads every .txt file of dir (e.g. "fr.txt" is the "fr" dictionary) and
// merges them with extra, the words given inline. Duplicates are removed.
func (l *CensoredLoader) LoadAll(dir string, extra ...string) (*CensoredData, error) {
	var languages []string
	uniqueWords := make(map[string]struct{})
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			uniqueWords[w] = struct{}{}
		}
	}

	if l.fs != nil {
		entries, err := fs.ReadDir(l.fs, dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
				continue
			}
			languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

			data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			// ⚠️Don't use strings.Split, files may come with \r\n
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					uniqueWords[line] = struct{}{}
				}
			}
			if err := scanner.Err(); err != nil {
				return nil, err
			}
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}
	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &CensoredData{Words: words, Languages: languages}, nil
}
