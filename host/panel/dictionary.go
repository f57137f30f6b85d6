package panel

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dictionary is the command list the generator reports through identify
type Dictionary struct {
	Version   string         `json:"version"`
	Commands  map[string]int `json:"commands"`
	Responses map[string]int `json:"responses"`

	commands  map[string]Entry
	responses map[string]Entry
	byID      map[uint16]Entry
}

// Entry is one dictionary line split into its parts
type Entry struct {
	ID     uint16
	Name   string
	Format string
}

// ParseDictionary decodes the identify payload
func ParseDictionary(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	d.commands = index(d.Commands)
	d.responses = index(d.Responses)
	d.byID = make(map[uint16]Entry, len(d.responses))
	for _, e := range d.responses {
		d.byID[e.ID] = e
	}
	return d, nil
}

func index(m map[string]int) map[string]Entry {
	out := make(map[string]Entry, len(m))
	for key, id := range m {
		name, format, _ := strings.Cut(key, " ")
		out[name] = Entry{ID: uint16(id), Name: name, Format: format}
	}
	return out
}

// Command looks up a command by name
func (d *Dictionary) Command(name string) (Entry, bool) {
	e, ok := d.commands[name]
	return e, ok
}

// Response looks up a response by name
func (d *Dictionary) Response(name string) (Entry, bool) {
	e, ok := d.responses[name]
	return e, ok
}

// ResponseByID looks up a response by id
func (d *Dictionary) ResponseByID(id uint16) (Entry, bool) {
	e, ok := d.byID[id]
	return e, ok
}

// Names returns the command names in id order
func (d *Dictionary) Names() []string {
	entries := make([]Entry, 0, len(d.commands))
	for _, e := range d.commands {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Print writes a summary of the dictionary
func (d *Dictionary) Print(w io.Writer) {
	fmt.Fprintf(w, "Protocol version: %s\n", d.Version)
	fmt.Fprintf(w, "Commands (%d):\n", len(d.commands))
	for _, name := range d.Names() {
		e := d.commands[name]
		fmt.Fprintf(w, "  [%2d] %s %s\n", e.ID, e.Name, e.Format)
	}
	fmt.Fprintf(w, "Responses (%d):\n", len(d.responses))
	for _, e := range d.responses {
		fmt.Fprintf(w, "  [%2d] %s\n", e.ID, e.Name)
	}
}
