// Package normalize converts the three caption shapes the platforms produce
// into the single timed-segment model the rest of the pipeline stores.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
)

// Payload is the tagged union of ingestible caption shapes. Dispatch happens
// once, at ingestion.
type Payload interface {
	payloadType() string
}

// WebVTT is caption text in the WebVTT-like format platforms serve for
// official captions.
type WebVTT struct {
	Raw string
}

// Transcript is the shape a transcription engine emits.
type Transcript struct {
	Text     string
	Segments []models.TimedSegment
	Language string
}

// OffsetMap keys caption lines by start offset, either numeric seconds or a
// timestamp string. No end times are available in this shape.
type OffsetMap struct {
	Entries map[string]string
}

func (WebVTT) payloadType() string     { return "webvtt" }
func (Transcript) payloadType() string { return "transcript" }
func (OffsetMap) payloadType() string  { return "offset-map" }

// Normalized is the uniform result: plain text equals the space-joined
// segment texts in start order, for every input shape.
type Normalized struct {
	PlainText string
	Timed     models.TimedContent
	Language  string
}

var inlineTagRe = regexp.MustCompile(`<[^>]*>`)

// Normalize parses one payload. A malformed timestamp or unrecognizable
// structure yields a *errs.FormatError; that is a data bug, not transience.
func Normalize(p Payload) (*Normalized, error) {
	switch v := p.(type) {
	case WebVTT:
		return parseWebVTT(v.Raw)
	case Transcript:
		segments := make([]models.TimedSegment, len(v.Segments))
		copy(segments, v.Segments)
		return &Normalized{
			PlainText: v.Text,
			Timed: models.TimedContent{
				Type:     "transcript",
				Segments: segments,
			},
			Language: PrimarySubtag(v.Language),
		}, nil
	case OffsetMap:
		return parseOffsetMap(v.Entries)
	default:
		return nil, errs.NewFormatError("unknown payload shape", p.payloadType())
	}
}

func parseWebVTT(raw string) (*Normalized, error) {
	metadata := map[string]string{}
	language := ""
	var segments []models.TimedSegment

	var curStart float64
	var curEnd float64
	var curText []string
	open := false

	flush := func() {
		if open && len(curText) > 0 {
			end := curEnd
			segments = append(segments, models.TimedSegment{
				Start: curStart,
				End:   &end,
				Text:  strings.Join(curText, " "),
			})
		}
		curText = nil
		open = false
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))

		switch {
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "Kind:"):
			metadata["kind"] = strings.TrimSpace(strings.TrimPrefix(line, "Kind:"))
			continue
		case strings.HasPrefix(line, "Language:"):
			lang := strings.TrimSpace(strings.TrimPrefix(line, "Language:"))
			metadata["language"] = lang
			language = PrimarySubtag(lang)
			continue
		case strings.Contains(line, "-->"):
			flush()
			parts := strings.SplitN(line, "-->", 2)
			start, err := ParseTimestamp(strings.Fields(strings.TrimSpace(parts[0]))[0])
			if err != nil {
				return nil, err
			}
			endField := strings.TrimSpace(parts[1])
			if endField == "" {
				return nil, errs.NewFormatError("cue missing end timestamp", line)
			}
			end, err := ParseTimestamp(strings.Fields(endField)[0])
			if err != nil {
				return nil, err
			}
			curStart, curEnd = start, end
			open = true
			continue
		case line == "":
			flush()
			continue
		case isDigitsOnly(line):
			// cue identifier
			continue
		}

		if open {
			text := strings.TrimSpace(inlineTagRe.ReplaceAllString(line, ""))
			if text != "" {
				curText = append(curText, text)
			}
		}
	}
	flush()

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return &Normalized{
		PlainText: strings.Join(texts, " "),
		Timed: models.TimedContent{
			Type:     "webvtt",
			Metadata: metadata,
			Segments: segments,
		},
		Language: language,
	}, nil
}

func parseOffsetMap(entries map[string]string) (*Normalized, error) {
	segments := make([]models.TimedSegment, 0, len(entries))
	for key, text := range entries {
		start, err := strconv.ParseFloat(key, 64)
		if err != nil {
			start, err = ParseTimestamp(key)
			if err != nil {
				return nil, err
			}
		}
		segments = append(segments, models.TimedSegment{Start: start, Text: text})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return &Normalized{
		PlainText: strings.Join(texts, " "),
		Timed: models.TimedContent{
			Type:     "offset-map",
			Segments: segments,
		},
	}, nil
}

// ParseTimestamp converts HH:MM:SS.mmm, MM:SS.mmm or SS.mmm (comma decimals
// accepted) into seconds.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.ReplaceAll(ts, ",", "."), ":")
	if len(parts) > 3 {
		return 0, errs.NewFormatError("invalid timestamp", ts)
	}
	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, errs.NewFormatError("invalid timestamp", ts)
		}
		total = total*60 + v
	}
	return total, nil
}

// PrimarySubtag reduces a language tag to its 2-letter primary subtag, e.g.
// "en-US" -> "en".
func PrimarySubtag(lang string) string {
	if lang == "" {
		return ""
	}
	return strings.ToLower(strings.SplitN(lang, "-", 2)[0])
}

func isDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
