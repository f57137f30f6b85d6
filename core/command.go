package core

import (
	"errors"
	"sync"
)

// CommandHandler decodes its own arguments from data
type CommandHandler func(data *[]byte) error

// Command is one entry of the panel dictionary. Responses have no handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument list, e.g. "freq=%u"
	Handler CommandHandler
}

// ErrUnknownCommand is returned for ids nobody registered
var ErrUnknownCommand = errors.New("unknown command")

// CommandRegistry assigns ids in registration order
type CommandRegistry struct {
	mu     sync.RWMutex
	byID   []*Command
	byName map[string]*Command
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]*Command)}
}

// Register adds a command and returns its id. Registering a name twice
// returns the first id.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byName[name]; ok {
		return c.ID
	}
	c := &Command{ID: uint16(len(r.byID)), Name: name, Format: format, Handler: handler}
	r.byID = append(r.byID, c)
	r.byName[name] = c
	return c.ID
}

// RegisterResponse adds a reply message
func (r *CommandRegistry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

// GetCommand looks a command up by id
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// GetCommandByName looks a command up by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Count returns the number of entries
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Dispatch runs the handler registered under id
func (r *CommandRegistry) Dispatch(id uint16, data *[]byte) error {
	c, ok := r.GetCommand(id)
	if !ok || c.Handler == nil {
		return ErrUnknownCommand
	}
	return c.Handler(data)
}

// Dictionary renders the registry as JSON:
//
//	{"version":"...","commands":{"name fmt":id,...},"responses":{...}}
//
// Built by hand so the firmware does not pull in reflection.
func (r *CommandRegistry) Dictionary(version string) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":"`...)
	out = append(out, version...)
	out = append(out, `","commands":{`...)
	out = r.appendEntries(out, true)
	out = append(out, `},"responses":{`...)
	out = r.appendEntries(out, false)
	out = append(out, "}}"...)
	return out
}

func (r *CommandRegistry) appendEntries(out []byte, handlers bool) []byte {
	first := true
	for _, c := range r.byID {
		if (c.Handler != nil) != handlers {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		out = append(out, '"')
		out = append(out, c.Name...)
		if c.Format != "" {
			out = append(out, ' ')
			out = append(out, c.Format...)
		}
		out = append(out, `":`...)
		out = append(out, itoa(int(c.ID))...)
	}
	return out
}
