package schemastore

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/schema"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// manifestArrays lists the ten arrays the "api" object carries (spec
// §6): the eight msg-name arrays plus interface_in/interface_out, each
// paired with the store slot it populates.
var manifestArrays = []struct {
	key string
	dir MsgDirection
}{
	{"cmd_in", CmdIn},
	{"cmd_out", CmdOut},
	{"data_in", DataIn},
	{"data_out", DataOut},
	{"video_frame_in", VideoFrameIn},
	{"video_frame_out", VideoFrameOut},
	{"audio_frame_in", AudioFrameIn},
	{"audio_frame_out", AudioFrameOut},
	{"interface_in", InterfaceIn},
	{"interface_out", InterfaceOut},
}

// InterfaceResolver expands a by-reference interface import into a
// fully-expanded "api"-shaped definition, given the manifest's base
// directory. SetInterfaceSchemaDefinitionFromManifest delegates to it,
// then applies each expanded definition the same way
// SetSchemaDefinitionFromManifest applies an "api" object.
type InterfaceResolver func(baseDir string, ref *value.Value) (*value.Value, error)

// LoadManifestFile reads an extension's manifest (JSON, or any format
// spf13/viper supports) from path and applies it to s, following the
// Noldarim-style viper.New/SetConfigFile/ReadInConfig load shape but
// reading into a dynamic map (the manifest's schema nodes are
// arbitrarily shaped, not fixed Go structs) rather than a typed config.
func LoadManifestFile(s *Store, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("schemastore: read manifest %s: %w", path, err)
	}
	raw, err := json.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("schemastore: marshal manifest %s: %w", path, err)
	}
	return SetSchemaDefinitionFromManifest(s, raw)
}

// SetSchemaDefinitionFromManifest implements set_schema_definition
// (spec §4.5, §6): it parses the full manifest document's "api" object
// and populates s's own schema plus its ten msg-name maps.
func SetSchemaDefinitionFromManifest(s *Store, manifestJSON []byte) error {
	doc, ferr := value.FromJSON(manifestJSON)
	if ferr != nil {
		return ferr
	}
	api, ok := doc.ObjectPeek("api")
	if !ok {
		return flowerr.New(flowerr.CodeInvalidArgument, "schemastore: manifest missing \"api\" object")
	}
	return applyAPIDefinition(s, api)
}

// SetInterfaceSchemaDefinitionFromManifest implements
// set_interface_schema_definition (spec §4.5): interface_in/out entries
// are $ref-like imports, resolved externally against baseDir, then
// folded back into the same api-object application path.
func SetInterfaceSchemaDefinitionFromManifest(s *Store, manifestJSON []byte, baseDir string, resolve InterfaceResolver) error {
	doc, ferr := value.FromJSON(manifestJSON)
	if ferr != nil {
		return ferr
	}
	api, ok := doc.ObjectPeek("api")
	if !ok {
		return flowerr.New(flowerr.CodeInvalidArgument, "schemastore: manifest missing \"api\" object")
	}
	for _, group := range []string{"interface_in", "interface_out"} {
		arr, ok := api.ObjectPeek(group)
		if !ok {
			continue
		}
		refs, _ := arr.PeekArray()
		for _, ref := range refs {
			expanded, err := resolve(baseDir, ref)
			if err != nil {
				return fmt.Errorf("schemastore: resolve interface %s: %w", group, err)
			}
			expandedAPI, ok := expanded.ObjectPeek("api")
			if !ok {
				expandedAPI = expanded
			}
			if err := applyAPIDefinition(s, expandedAPI); err != nil {
				return err
			}
		}
	}
	return applyAPIDefinition(s, api)
}

// applyAPIDefinition walks one "api" object (top-level property/required
// plus the ten msg-name arrays) and registers every entry found in it.
func applyAPIDefinition(s *Store, api *value.Value) error {
	if propVal, ok := api.ObjectPeek("property"); ok {
		var required []string
		if reqVal, ok := api.ObjectPeek("required"); ok {
			items, _ := reqVal.PeekArray()
			for _, item := range items {
				if name, ok := item.PeekRawStr(); ok {
					required = append(required, name)
				}
			}
		}
		own, err := compileObjectSchema(propVal, required)
		if err != nil {
			return err
		}
		s.SetOwnSchema(own, required)
	}

	for _, group := range manifestArrays {
		arrVal, ok := api.ObjectPeek(group.key)
		if !ok {
			continue
		}
		entries, _ := arrVal.PeekArray()
		for _, entry := range entries {
			if err := applyManifestEntry(s, group.dir, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyManifestEntry registers one {name, property, required, result?}
// manifest entry under dir.
func applyManifestEntry(s *Store, dir MsgDirection, entry *value.Value) error {
	nameVal, ok := entry.ObjectPeek("name")
	if !ok {
		return flowerr.New(flowerr.CodeInvalidArgument, "schemastore: manifest entry missing \"name\"")
	}
	name, ok := nameVal.PeekRawStr()
	if !ok {
		return flowerr.New(flowerr.CodeInvalidArgument, "schemastore: manifest entry \"name\" must be a string")
	}

	var required []string
	if reqVal, ok := entry.ObjectPeek("required"); ok {
		items, _ := reqVal.PeekArray()
		for _, item := range items {
			if rn, ok := item.PeekRawStr(); ok {
				required = append(required, rn)
			}
		}
	}

	var property *schema.Schema
	if propVal, ok := entry.ObjectPeek("property"); ok {
		compiled, err := compileObjectSchema(propVal, required)
		if err != nil {
			return err
		}
		property = compiled
	} else {
		property = &schema.Schema{Type: value.Object}
	}

	var result *schema.Schema
	if resultVal, ok := entry.ObjectPeek("result"); ok {
		var resultRequired []string
		if reqVal, ok := resultVal.ObjectPeek("required"); ok {
			items, _ := reqVal.PeekArray()
			for _, item := range items {
				if rn, ok := item.PeekRawStr(); ok {
					resultRequired = append(resultRequired, rn)
				}
			}
		}
		resultPropVal, ok := resultVal.ObjectPeek("property")
		if !ok {
			return flowerr.New(flowerr.CodeInvalidArgument, "schemastore: entry %q result missing \"property\"", name)
		}
		compiled, err := compileObjectSchema(resultPropVal, resultRequired)
		if err != nil {
			return err
		}
		result = compiled
	}

	if ferr := s.SetSchemaDefinition(dir, name, property, result); ferr != nil {
		return ferr
	}
	return nil
}

// compileObjectSchema wraps a bare "property" map (name -> <schema>)
// and its sibling "required" array into the synthetic
// {"type":"object","properties":{...},"required":[...]} shape
// schema.CreateFromValue expects, then compiles it.
func compileObjectSchema(propMap *value.Value, required []string) (*schema.Schema, error) {
	if !propMap.IsObject() {
		return nil, flowerr.New(flowerr.CodeInvalidArgument, "schemastore: \"property\" must be an object")
	}
	wrapper := value.NewObject()
	if err := wrapper.ObjectMove("type", value.NewString("object")); err != nil {
		return nil, err
	}
	properties, err := propMap.Clone()
	if err != nil {
		return nil, err
	}
	if err := wrapper.ObjectMove("properties", properties); err != nil {
		return nil, err
	}
	if len(required) > 0 {
		reqArr := value.NewArray()
		for _, name := range required {
			if err := reqArr.ArrayAppend(value.NewString(name)); err != nil {
				return nil, err
			}
		}
		if err := wrapper.ObjectMove("required", reqArr); err != nil {
			return nil, err
		}
	}
	compiled, ferr := schema.CreateFromValue(wrapper)
	if ferr != nil {
		return nil, ferr
	}
	return compiled, nil
}
