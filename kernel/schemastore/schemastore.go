// Package schemastore implements the Schema Store (C5): a per-extension
// index of msg-name -> schema across the eight message-direction maps
// plus the two interface-import maps, applying ingress/egress adjust
// and validate around a message's property tree.
package schemastore

import (
	"github.com/nmxmxh/flowmesh/kernel/container/bloomindex"
	"github.com/nmxmxh/flowmesh/kernel/container/orderedmap"
	"github.com/nmxmxh/flowmesh/kernel/container/rwphase"
	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/schema"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// MsgDirection names one of the store's ten maps: the eight msg-name
// maps spec §3/§4.5 define plus the two interface maps.
type MsgDirection int

const (
	CmdIn MsgDirection = iota
	CmdOut
	DataIn
	DataOut
	VideoFrameIn
	VideoFrameOut
	AudioFrameIn
	AudioFrameOut
	InterfaceIn
	InterfaceOut
)

// Entry is one schema-store record: the message's own property schema
// plus, for commands, the reply's property schema.
type Entry struct {
	Property *schema.Schema
	Result   *schema.Schema // non-nil only for cmd_in/cmd_out entries
}

// Store is the per-extension schema index.
type Store struct {
	own         *schema.Schema
	ownRequired []string

	lock rwphase.Mutex
	maps [10]*orderedmap.Map[string, Entry]
	seen *bloomindex.Index
}

func New() *Store {
	s := &Store{seen: bloomindex.New(4096, 0.01)}
	for i := range s.maps {
		s.maps[i] = orderedmap.New[string, Entry]()
	}
	return s
}

// SetSchemaDefinition registers one message's schema under dir. name
// must not be empty and must not collide with the reserved prefix;
// this rejects the "ten:empty" fallback behaviour (DESIGN.md's Open
// Question decision) outright rather than silently accepting it.
func (s *Store) SetSchemaDefinition(dir MsgDirection, name string, property, result *schema.Schema) *flowerr.Error {
	if name == "" || name == msg.ReservedPrefix+"empty" {
		return flowerr.New(flowerr.CodeInvalidArgument, "schema store: message name must not be empty or %q", msg.ReservedPrefix+"empty")
	}
	if err := msg.ValidateName(name); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.maps[dir].Add(name, &Entry{Property: property, Result: result})
	s.seen.Add(mapKey(dir, name))
	return nil
}

// SetOwnSchema registers the extension's own config property/required
// schema, applied by ValidateProperties/AdjustProperties below.
func (s *Store) SetOwnSchema(own *schema.Schema, required []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.own = own
	s.ownRequired = required
}

// OwnSchema returns the extension's own top-level schema, or nil if
// none has been registered (cmd/flowctl's check-compat needs direct
// access to it rather than going through the ValidateProperties path).
func (s *Store) OwnSchema() *schema.Schema {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.own
}

func mapKey(dir MsgDirection, name string) string {
	return string(rune('0'+int(dir))) + ":" + name
}

// GetMsgSchema returns the schema entry for (dir, name), or false if
// none is registered. The bloom filter answers the common "definitely
// absent" case without touching the underlying map.
func (s *Store) GetMsgSchema(dir MsgDirection, name string) (*Entry, bool) {
	if !s.seen.MaybeContains(mapKey(dir, name)) {
		return nil, false
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.maps[dir].Find(name)
}

// ValidateProperties validates v against the extension's own top-level
// schema, applied once at initialization (spec §4.5).
func (s *Store) ValidateProperties(v *value.Value) *flowerr.Error {
	s.lock.RLock()
	own := s.own
	s.lock.RUnlock()
	if own == nil {
		return nil
	}
	return schema.Validate(own, v)
}

// AdjustProperties adjusts v's tags against the extension's own
// top-level schema.
func (s *Store) AdjustProperties(v *value.Value) *flowerr.Error {
	s.lock.RLock()
	own := s.own
	s.lock.RUnlock()
	if own == nil {
		return nil
	}
	return schema.AdjustValueType(own, v)
}

// ValidatePropertyKV validates a single top-level property as it is
// set, against the matching child of the extension's own schema.
func (s *Store) ValidatePropertyKV(name string, v *value.Value) *flowerr.Error {
	s.lock.RLock()
	own := s.own
	s.lock.RUnlock()
	if own == nil {
		return nil
	}
	child, ok := own.Properties[name]
	if !ok {
		return nil
	}
	return schema.Validate(child, v)
}

// AdjustPropertyKV adjusts a single top-level property's tag against
// the matching child of the extension's own schema.
func (s *Store) AdjustPropertyKV(name string, v *value.Value) *flowerr.Error {
	s.lock.RLock()
	own := s.own
	s.lock.RUnlock()
	if own == nil {
		return nil
	}
	child, ok := own.Properties[name]
	if !ok {
		return nil
	}
	return schema.AdjustValueType(child, v)
}

// DirectionForType maps a message's Type to the matching schema-store
// direction (spec §4.5's eight msg-name maps): egress selects the
// *_out map a sending extension's own outbound messages are checked
// against, egress=false selects the *_in map a receiving extension
// checks inbound messages against. ok is false for cmd-result and any
// other variant with no direction of its own (cmd-results validate
// separately, via ApplyResult).
func DirectionForType(t msg.Type, egress bool) (dir MsgDirection, ok bool) {
	switch t {
	case msg.TypeCmd, msg.TypeCmdStartGraph, msg.TypeCmdStopGraph, msg.TypeCmdTimer, msg.TypeCmdCloseApp:
		if egress {
			return CmdOut, true
		}
		return CmdIn, true
	case msg.TypeData:
		if egress {
			return DataOut, true
		}
		return DataIn, true
	case msg.TypeVideoFrame:
		if egress {
			return VideoFrameOut, true
		}
		return VideoFrameIn, true
	case msg.TypeAudioFrame:
		if egress {
			return AudioFrameOut, true
		}
		return AudioFrameIn, true
	default:
		return 0, false
	}
}

// ApplyIngress looks up the schema for (dir, name), then adjusts then
// validates m's properties against it (spec §4.5's ingress/egress
// flow). Command replies additionally validate against the cmd
// schema's result property, via ApplyResult.
func (s *Store) ApplyIngress(dir MsgDirection, name string, m *msg.Msg) *flowerr.Error {
	entry, ok := s.GetMsgSchema(dir, name)
	if !ok {
		return nil // no schema registered for this message: pass through
	}
	if err := schema.AdjustValueType(entry.Property, m.Properties()); err != nil {
		return err
	}
	return schema.Validate(entry.Property, m.Properties())
}

// ApplyResult validates a command's reply properties against the
// cmd_in/cmd_out entry's result.property schema.
func (s *Store) ApplyResult(dir MsgDirection, cmdName string, result *msg.Msg) *flowerr.Error {
	entry, ok := s.GetMsgSchema(dir, cmdName)
	if !ok || entry.Result == nil {
		return nil
	}
	if err := schema.AdjustValueType(entry.Result, result.Properties()); err != nil {
		return err
	}
	return schema.Validate(entry.Result, result.Properties())
}
