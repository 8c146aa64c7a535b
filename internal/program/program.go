// Package program defines the catalog's program record and its JSON codec.
//
// Records arrive from two places (the remote API and the bundled snapshot)
// with loosely typed legacy content: ids may be numbers or strings, and
// bilingual attributes are stored as parallel "<base>_en" / "<base>_zh" keys.
// Decoding keeps every top-level string attribute addressable by name and
// retains the original document so records can be served back verbatim.
package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/sliceutil"
)

// Tag is a display label attached to a program.
type Tag struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameZH string `json:"name_zh"`
}

// Program is one study-abroad offering.
type Program struct {
	ID          string
	ProgramID   string
	TitleEN     string
	TitleZH     string
	LocationEN  string
	LocationZH  string
	Country     string
	Duration    string
	Tags        []Tag
	GradeLevels []string

	// Attrs holds every other top-level string attribute, including the
	// rich-text description_*, highlights_*, itinerary_* and features_* fields.
	Attrs map[string]string

	raw json.RawMessage
}

// RichTextFields lists the rich-text field bases. The pipeline never inspects their content.
var RichTextFields = []string{"description", "highlights", "itinerary", "features"}

// Attr returns the top-level string attribute named key, or "" when absent.
func (p *Program) Attr(key string) string {
	switch key {
	case "id":
		return p.ID
	case "program_id":
		return p.ProgramID
	case "title_en":
		return p.TitleEN
	case "title_zh":
		return p.TitleZH
	case "location_en":
		return p.LocationEN
	case "location_zh":
		return p.LocationZH
	case "country":
		return p.Country
	case "duration":
		return p.Duration
	}
	return p.Attrs[key]
}

// Matches reports whether id identifies this record by id or program_id.
func (p *Program) Matches(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	return p.ID == id || p.ProgramID == id
}

// Validate checks the record invariants needed by the catalog.
func (p *Program) Validate() error {
	if p.ID == "" {
		return domerrors.NewValidationError("id", "must not be empty")
	}
	if p.TitleEN == "" && p.TitleZH == "" {
		return domerrors.NewValidationError("title", "title_en or title_zh is required")
	}
	return nil
}

// UnmarshalJSON decodes a loosely typed program document.
func (p *Program) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", domerrors.ErrMalformedPayload, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: program must be a JSON object", domerrors.ErrMalformedPayload)
	}

	out := Program{Attrs: make(map[string]string)}
	for key, value := range fields {
		switch key {
		case "id", "program_id":
			id, err := decodeFlexibleString(value)
			if err != nil {
				return fmt.Errorf("%w: field %q: %w", domerrors.ErrMalformedPayload, key, err)
			}
			if key == "id" {
				out.ID = id
			} else {
				out.ProgramID = id
			}
		case "tags":
			tags, err := decodeTags(value)
			if err != nil {
				return fmt.Errorf("%w: field %q: %w", domerrors.ErrMalformedPayload, key, err)
			}
			out.Tags = tags
		case "grade_levels":
			levels, err := decodeStringList(value)
			if err != nil {
				return fmt.Errorf("%w: field %q: %w", domerrors.ErrMalformedPayload, key, err)
			}
			out.GradeLevels = levels
		default:
			var s string
			if json.Unmarshal(value, &s) == nil {
				out.Attrs[key] = s
			}
		}
	}

	out.TitleEN = out.Attrs["title_en"]
	out.TitleZH = out.Attrs["title_zh"]
	out.LocationEN = out.Attrs["location_en"]
	out.LocationZH = out.Attrs["location_zh"]
	out.Country = out.Attrs["country"]
	out.Duration = out.Attrs["duration"]
	for _, key := range []string{"title_en", "title_zh", "location_en", "location_zh", "country", "duration"} {
		delete(out.Attrs, key)
	}

	out.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	*p = out
	return nil
}

// MarshalJSON re-emits the decoded document unchanged. Records built in code
// are encoded from their fields.
func (p Program) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}

	doc := make(map[string]any, len(p.Attrs)+10)
	for k, v := range p.Attrs {
		doc[k] = v
	}
	doc["id"] = p.ID
	if p.ProgramID != "" {
		doc["program_id"] = p.ProgramID
	}
	doc["title_en"] = p.TitleEN
	doc["title_zh"] = p.TitleZH
	doc["location_en"] = p.LocationEN
	doc["location_zh"] = p.LocationZH
	doc["country"] = p.Country
	doc["duration"] = p.Duration
	tags := p.Tags
	if tags == nil {
		tags = []Tag{}
	}
	doc["tags"] = tags
	levels := p.GradeLevels
	if levels == nil {
		levels = []string{}
	}
	doc["grade_levels"] = levels
	return json.Marshal(doc)
}

// Decode parses a single program document and validates it.
func Decode(data []byte) (Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return Program{}, err
	}
	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	return p, nil
}

// DecodeList parses a JSON array of program documents.
// Any malformed or invalid element fails the whole list.
func DecodeList(data []byte) ([]Program, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: expected array of programs: %w", domerrors.ErrMalformedPayload, err)
	}
	programs := make([]Program, 0, len(items))
	for i, item := range items {
		p, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("program at index %d: %w", i, err)
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// Dedupe drops records whose id was already seen, keeping the first.
// It returns the kept records and the ids that were dropped.
func Dedupe(programs []Program) ([]Program, []string) {
	return sliceutil.Deduplicate(programs, func(p Program) string { return p.ID })
}

// Find returns the first record matching id by id or program_id.
func Find(programs []Program, id string) (Program, bool) {
	for _, p := range programs {
		if p.Matches(id) {
			return p, true
		}
	}
	return Program{}, false
}

func decodeFlexibleString(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func decodeTags(raw json.RawMessage) ([]Tag, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var tag Tag
		if v, ok := item["id"]; ok {
			id, err := decodeFlexibleString(v)
			if err != nil {
				return nil, fmt.Errorf("tag id: %w", err)
			}
			tag.ID = id
		}
		_ = json.Unmarshal(item["name_en"], &tag.NameEN)
		_ = json.Unmarshal(item["name_zh"], &tag.NameZH)

		if tag.ID != "" {
			if _, dup := seen[tag.ID]; dup {
				continue
			}
			seen[tag.ID] = struct{}{}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func decodeStringList(raw json.RawMessage) ([]string, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
