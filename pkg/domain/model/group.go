package model

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Ungrouped bucket identity for fields without a group
const (
	UngroupedID    = "ungrouped"
	UngroupedTitle = "General"
	DefaultColumns = 1
)

// Group is a presentation bucket of field definitions
type Group struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Columns     int               `json:"columns"`
	Fields      []FieldDefinition `json:"fields"`
}

// GroupSource is one of the two shapes a repository returns grouped fields
// in: GroupList or GroupMap.
type GroupSource interface {
	ingest() []Group
}

// GroupList is an already grouped, ordered list of groups
type GroupList []Group

// GroupEntry is one key of a GroupMap
type GroupEntry struct {
	Name   string
	Fields []FieldDefinition
}

// GroupMap maps group names to fields while keeping the order in which keys
// were encountered.
type GroupMap []GroupEntry

// GroupByName buckets fields by their Group, in first-encountered order
func GroupByName(fields []FieldDefinition) GroupMap {
	var m GroupMap
	index := make(map[string]int)
	for _, fd := range fields {
		key := strings.TrimSpace(fd.Group)
		i, ok := index[key]
		if !ok {
			i = len(m)
			index[key] = i
			m = append(m, GroupEntry{Name: key})
		}
		m[i].Fields = append(m[i].Fields, fd)
	}
	return m
}

func (l GroupList) ingest() []Group {
	groups := make([]Group, 0, len(l))
	for _, g := range l {
		groups = append(groups, Group{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Icon:        g.Icon,
			Columns:     g.Columns,
			Fields:      g.Fields,
		})
	}
	return groups
}

func (m GroupMap) ingest() []Group {
	groups := make([]Group, 0, len(m))
	for _, entry := range m {
		groups = append(groups, Group{
			ID:     entry.Name,
			Title:  entry.Name,
			Fields: entry.Fields,
		})
	}
	return groups
}

// NormalizeGroups arranges grouped fields for presentation. Groups keep the
// order in which they appear in source; groups sharing an identity are merged.
// Fields within a group are ordered by Order, then by name compared
// case-insensitively with locale-aware collation. The input is not modified.
func NormalizeGroups(source GroupSource) []Group {
	if source == nil {
		return []Group{}
	}

	ingested := source.ingest()
	groups := make([]Group, 0, len(ingested))
	index := make(map[string]int, len(ingested))

	for _, g := range ingested {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			id = UngroupedID
		}

		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{
				ID:          id,
				Title:       strings.TrimSpace(g.Title),
				Description: g.Description,
				Icon:        g.Icon,
				Columns:     g.Columns,
			})
		}
		groups[i].Fields = append(groups[i].Fields, g.Fields...)
	}

	cmpName := newNameComparer()
	for i := range groups {
		g := &groups[i]
		if g.Title == "" {
			g.Title = g.ID
			if g.ID == UngroupedID {
				g.Title = UngroupedTitle
			}
		}
		if g.Columns <= 0 {
			g.Columns = DefaultColumns
		}
		if g.Fields == nil {
			g.Fields = []FieldDefinition{}
		}
		slices.SortStableFunc(g.Fields, func(a, b FieldDefinition) int {
			if a.Order != b.Order {
				if a.Order < b.Order {
					return -1
				}
				return 1
			}
			return cmpName(string(a.Name), string(b.Name))
		})
	}

	return groups
}

// newNameComparer returns a total order over names: collation ignoring case
// first, then byte order to separate names that collate equal. A Collator is
// not safe for concurrent use, so each call gets its own.
func newNameComparer() func(a, b string) int {
	c := collate.New(language.Und, collate.IgnoreCase)
	return func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
}

// MarshalJSON encodes the map as a JSON object, keys in order
func (m GroupMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal group name")
		}
		fields := entry.Fields
		if fields == nil {
			fields = []FieldDefinition{}
		}
		value, err := json.Marshal(fields)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal group fields", goerr.V("group", entry.Name))
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document
func (m *GroupMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return goerr.Wrap(err, "failed to read group map")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return goerr.New("group map must be a JSON object")
	}

	var out GroupMap
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return goerr.Wrap(err, "failed to read group name")
		}
		key, ok := keyTok.(string)
		if !ok {
			return goerr.New("group name must be a string")
		}
		var fields []FieldDefinition
		if err := dec.Decode(&fields); err != nil {
			return goerr.Wrap(err, "failed to decode group fields", goerr.V("group", key))
		}
		out = append(out, GroupEntry{Name: key, Fields: fields})
	}
	if _, err := dec.Token(); err != nil {
		return goerr.Wrap(err, "failed to close group map")
	}

	*m = out
	return nil
}
