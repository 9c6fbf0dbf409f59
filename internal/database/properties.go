package database

import "fmt"

// Entity is a kind of record persisted by the store.
type Entity int

const (
	EntityUser Entity = iota + 1
	EntityMessage
)

func (e Entity) String() string {
	switch e {
	case EntityUser:
		return "user"
	case EntityMessage:
		return "message"
	default:
		return fmt.Sprintf("entity(%d)", int(e))
	}
}

// Property is a token standing for one attribute of an entity. Tokens are
// compared by identity, so a Property built outside this package, or one
// belonging to another entity, never validates.
type Property struct {
	entity Entity
	column Column
}

func (p *Property) Name() string {
	if p == nil {
		return ""
	}
	return p.column.name
}

func (p *Property) Entity() Entity {
	if p == nil {
		return 0
	}
	return p.entity
}

func (p *Property) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.Entity().String() + "." + p.Name()
}

func newProperty(e Entity, name string) *Property {
	return &Property{entity: e, column: Column{name: name}}
}

// The tokens are unexported so no other package can rebind them; the
// accessors below always return the registered pointers.
var (
	userSocketId = newProperty(EntityUser, "socketID")
	userUsername = newProperty(EntityUser, "username")

	messageId     = newProperty(EntityMessage, "id")
	messageText   = newProperty(EntityMessage, "text")
	messageUserId = newProperty(EntityMessage, "userID")
	messageTime   = newProperty(EntityMessage, "time")
)

func UserSocketId() *Property  { return userSocketId }
func UserUsername() *Property  { return userUsername }
func MessageId() *Property     { return messageId }
func MessageText() *Property   { return messageText }
func MessageUserId() *Property { return messageUserId }
func MessageTime() *Property   { return messageTime }

type propertySet struct {
	table  Table
	byName map[string]*Property
}

func newPropertySet(table string, props ...*Property) propertySet {
	set := propertySet{
		table:  Table{name: table},
		byName: make(map[string]*Property, len(props)),
	}
	for _, p := range props {
		set.byName[p.column.name] = p
	}
	return set
}

// registry is written once at package init and only read afterwards.
var registry = map[Entity]propertySet{
	EntityUser:    newPropertySet("users", userSocketId, userUsername),
	EntityMessage: newPropertySet("messages", messageId, messageText, messageUserId, messageTime),
}

// IsValidProperty reports whether p is exactly one of the registered tokens
// of entity e.
func IsValidProperty(e Entity, p *Property) bool {
	if p == nil {
		return false
	}
	set, ok := registry[e]
	if !ok {
		return false
	}
	return set.byName[p.column.name] == p
}

// Lookup resolves an attribute name of entity e to its token.
func Lookup(e Entity, name string) (*Property, bool) {
	set, ok := registry[e]
	if !ok {
		return nil, false
	}
	p, ok := set.byName[name]
	return p, ok
}

// Properties returns the tokens registered for entity e.
func Properties(e Entity) []*Property {
	set := registry[e]
	props := make([]*Property, 0, len(set.byName))
	for _, p := range set.byName {
		props = append(props, p)
	}
	return props
}

func tableOf(e Entity) Table {
	return registry[e].table
}
