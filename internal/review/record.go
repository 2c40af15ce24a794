package review

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one raw review as provided by the storefront. The payload is kept
// as an opaque mapping; accessors pull out the handful of fields the pipeline
// reads, tolerating the storefront's mix of string and numeric encodings.
type Record map[string]any

// ParseRecord decodes a single raw corpus line.
func ParseRecord(line []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ID returns the review's recommendation id.
func (r Record) ID() string {
	switch v := r["recommendationid"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

// Text returns the trimmed free-form review text.
func (r Record) Text() string {
	if text, ok := r["review"].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

// VotedUp reports whether the review is a recommendation.
func (r Record) VotedUp() bool {
	voted, _ := r["voted_up"].(bool)
	return voted
}

// VotesUp returns the helpful-vote counter.
func (r Record) VotesUp() int64 {
	return r.intField("votes_up")
}

// VotesFunny returns the funny-vote counter.
func (r Record) VotesFunny() int64 {
	return r.intField("votes_funny")
}

// PlaytimeForever returns the author's total playtime in minutes.
func (r Record) PlaytimeForever() float64 {
	author, ok := r["author"].(map[string]any)
	if !ok {
		return 0
	}
	switch v := author["playtime_forever"].(type) {
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func (r Record) intField(key string) int64 {
	switch v := r[key].(type) {
	case float64:
		return int64(v)
	case string:
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
