package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

// rawErrorLimit bounds the unparsed text carried inside an error record.
const rawErrorLimit = 200

// Normalize repairs raw worker output into exactly one valid single-line JSON
// object. It never fails: every unparseable input degrades to a typed error
// record so downstream consumers can tell "no task found" from "could not
// parse model output". The steps run as a fixed pipeline, each best-effort:
// strip fences, cut at the output marker, locate the brace span, rewrite bare
// literals, parse, reserialize compactly.
func Normalize(raw string) string {
	s := stripFences(raw)
	s = afterMarker(s)

	span, ok := locateObject(s)
	if !ok {
		return errorRecord("no_json_found", s)
	}
	span = rewriteLiterals(span)

	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return errorRecord("decode_error", span)
	}
	return marshalCompact(obj)
}

// IsErrorRecord reports whether a normalized line is a typed error record.
func IsErrorRecord(line string) bool {
	var rec struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return false
	}
	return rec.Error != ""
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func afterMarker(s string) string {
	if _, after, found := strings.Cut(s, jsonMarker); found {
		return strings.TrimSpace(after)
	}
	return s
}

// locateObject returns the span from the first '{' to the last '}' (greedy,
// across lines), mirroring what the worker is instructed to emit.
func locateObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// rewriteLiterals converts bare None/True/False tokens into JSON-legal
// equivalents. Only whole words outside string literals are touched, so a
// quoted "None" survives intact and re-normalizing already-valid output is a
// no-op.
func rewriteLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}
		if isWordByte(c) {
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "None":
				b.WriteString(`"None"`)
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			default:
				b.WriteString(word)
			}
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func errorRecord(kind, raw string) string {
	return marshalCompact(map[string]string{
		"error": kind,
		"raw":   truncateRunes(raw, rawErrorLimit),
	})
}

func exceptionRecord(msg string) string {
	return marshalCompact(map[string]string{
		"error": "exception:" + msg,
	})
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// marshalCompact serializes one line with non-ASCII characters preserved
// verbatim (no \uXXXX escaping beyond what JSON requires).
func marshalCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Maps of decoded JSON values always encode; keep the invariant anyway.
		return `{"error":"decode_error","raw":""}`
	}
	return strings.TrimRight(buf.String(), "\n")
}
