package catalog

import (
	"bufio"
	"io"
	"strings"
)

// Entry is one `key = value` definition as it appears in catalog text.
type Entry struct {
	Key  string
	Body string
	// Comment holds the `#` lines directly above the key, markers stripped,
	// joined with "\n". It is documentation only and never rendered.
	Comment string
	// Section is the title of the last `##` heading above the entry.
	Section string
	Line    int
	// Source is the file the entry was read from by LoadDir, empty for text
	// handed to Parse or Load directly.
	Source string
}

const bom = "\uFEFF"

// Parse reads catalog text line by line. Bad lines are reported as
// *ParseError values and skipped; they never stop the rest of the text from
// being read. A key defined twice keeps the later body in the position of
// the first definition.
func Parse(text string) ([]Entry, []error) {
	text = strings.TrimPrefix(text, bom)

	var (
		entries []Entry
		errs    []error
		pending []string
		section string
		index   = make(map[string]int)
		cur     = -1 // entry that an indented line would continue
	)

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			pending = nil
			cur = -1
			continue
		}

		if trimmed[0] == '#' {
			cur = -1
			switch {
			case strings.HasPrefix(trimmed, "###"):
				pending = nil
			case strings.HasPrefix(trimmed, "##"):
				section = strings.TrimSpace(trimmed[2:])
				pending = nil
			default:
				pending = append(pending, commentText(trimmed))
			}
			continue
		}

		key, body, ok := splitEntry(trimmed)
		if !ok {
			if cur >= 0 && isIndented(line) {
				entries[cur].Body += "\n" + trimmed
				continue
			}
			errs = append(errs, &ParseError{Line: lineNo, Text: trimmed, Err: ErrMalformedEntry})
			pending = nil
			cur = -1
			continue
		}

		e := Entry{
			Key:     key,
			Body:    body,
			Comment: strings.Join(pending, "\n"),
			Section: section,
			Line:    lineNo,
		}
		pending = nil

		if idx, dup := index[key]; dup {
			errs = append(errs, &ParseError{Line: lineNo, Key: key, Text: trimmed, Err: ErrDuplicateKey})
			entries[idx] = e
			cur = idx
			continue
		}
		index[key] = len(entries)
		cur = len(entries)
		entries = append(entries, e)
	}

	return entries, errs
}

// splitEntry splits on the first '='. The key must be a non-empty
// identifier; the body is trimmed of surrounding whitespace.
func splitEntry(line string) (key, body string, ok bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:eq])
	if !isIdentifier(key) {
		return "", "", false
	}
	return key, strings.TrimSpace(line[eq+1:]), true
}

func commentText(line string) string {
	line = strings.TrimPrefix(line, "#")
	return strings.TrimPrefix(line, " ")
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// Format writes entries back as catalog text. Parse(Format(entries))
// returns the same keys, bodies, comments and sections.
func Format(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	section := ""

	for i, e := range entries {
		if e.Section != section {
			if i > 0 {
				bw.WriteString("\n")
			}
			bw.WriteString(strings.TrimSpace("## "+e.Section) + "\n\n")
			section = e.Section
		} else if i > 0 && e.Comment != "" {
			bw.WriteString("\n")
		}

		if e.Comment != "" {
			for _, c := range strings.Split(e.Comment, "\n") {
				bw.WriteString(strings.TrimRight("# "+c, " ") + "\n")
			}
		}

		lines := strings.Split(e.Body, "\n")
		bw.WriteString(e.Key + " = " + lines[0])
		for _, l := range lines[1:] {
			bw.WriteString("\n    " + l)
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}
