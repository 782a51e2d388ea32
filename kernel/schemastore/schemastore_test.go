package schemastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/schema"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

func mustObjectSchema(t *testing.T, props map[string]string, required ...string) *schema.Schema {
	t.Helper()
	v := value.NewObject()
	require.NoError(t, v.ObjectMove("type", value.NewString("object")))
	propsVal := value.NewObject()
	for name, typ := range props {
		require.NoError(t, propsVal.ObjectMove(name, mustTypeSchemaValue(t, typ)))
	}
	require.NoError(t, v.ObjectMove("properties", propsVal))
	if len(required) > 0 {
		arr := value.NewArray()
		for _, name := range required {
			require.NoError(t, arr.ArrayAppend(value.NewString(name)))
		}
		require.NoError(t, v.ObjectMove("required", arr))
	}
	s, ferr := schema.CreateFromValue(v)
	require.Nil(t, ferr)
	return s
}

func mustTypeSchemaValue(t *testing.T, typ string) *value.Value {
	t.Helper()
	v := value.NewObject()
	require.NoError(t, v.ObjectMove("type", value.NewString(typ)))
	return v
}

func TestSetSchemaDefinitionRejectsEmptyName(t *testing.T) {
	s := New()
	err := s.SetSchemaDefinition(CmdIn, "", mustObjectSchema(t, nil), nil)
	assert.NotNil(t, err)
}

func TestSetSchemaDefinitionRejectsReservedPrefix(t *testing.T) {
	s := New()
	err := s.SetSchemaDefinition(CmdIn, msg.ReservedPrefix+"empty", mustObjectSchema(t, nil), nil)
	assert.NotNil(t, err)
}

func TestSetSchemaDefinitionRejectsInvalidName(t *testing.T) {
	s := New()
	err := s.SetSchemaDefinition(CmdIn, msg.ReservedPrefix+"reserved-looking", mustObjectSchema(t, nil), nil)
	assert.NotNil(t, err)
}

func TestGetMsgSchemaMissesUnregisteredName(t *testing.T) {
	s := New()
	require.NoError(t, s.SetSchemaDefinition(CmdIn, "known", mustObjectSchema(t, nil), nil))

	_, ok := s.GetMsgSchema(CmdIn, "unknown")
	assert.False(t, ok)
}

func TestGetMsgSchemaIsolatesDirections(t *testing.T) {
	s := New()
	require.NoError(t, s.SetSchemaDefinition(CmdIn, "shared-name", mustObjectSchema(t, nil), nil))

	_, ok := s.GetMsgSchema(DataIn, "shared-name")
	assert.False(t, ok, "a name registered under CmdIn must not be visible under DataIn")

	_, ok = s.GetMsgSchema(CmdIn, "shared-name")
	assert.True(t, ok)
}

func TestValidateAndAdjustPropertiesUseOwnSchema(t *testing.T) {
	s := New()
	own := mustObjectSchema(t, map[string]string{"count": "int32"}, "count")
	s.SetOwnSchema(own, []string{"count"})

	v := value.NewObject()
	require.NoError(t, v.ObjectMove("count", value.NewInt64(7)))

	assert.Nil(t, s.AdjustProperties(v))
	assert.Nil(t, s.ValidateProperties(v))
}

func TestValidatePropertiesWithNoOwnSchemaIsNoop(t *testing.T) {
	s := New()
	v := value.NewObject()
	assert.Nil(t, s.ValidateProperties(v))
	assert.Nil(t, s.AdjustProperties(v))
}

func TestValidatePropertyKVChecksMatchingChild(t *testing.T) {
	s := New()
	own := mustObjectSchema(t, map[string]string{"count": "int32"}, "count")
	s.SetOwnSchema(own, []string{"count"})

	assert.Nil(t, s.ValidatePropertyKV("count", value.NewInt64(3)))
}

func TestValidatePropertyKVIgnoresUnknownKey(t *testing.T) {
	s := New()
	own := mustObjectSchema(t, map[string]string{"count": "int32"}, "count")
	s.SetOwnSchema(own, []string{"count"})

	assert.Nil(t, s.ValidatePropertyKV("nonexistent", value.NewString("whatever")))
}

func TestAdjustPropertyKVWidensMatchingChild(t *testing.T) {
	s := New()
	own := mustObjectSchema(t, map[string]string{"ratio": "float64"}, "ratio")
	s.SetOwnSchema(own, []string{"ratio"})

	v := value.NewInt64(2)
	assert.Nil(t, s.AdjustPropertyKV("ratio", v))
}

func TestApplyIngressPassesThroughUnregisteredMessage(t *testing.T) {
	s := New()
	m := msg.CreateEmpty(msg.TypeData)
	assert.Nil(t, s.ApplyIngress(DataIn, "unregistered", m))
}

func TestApplyIngressRejectsMismatchedProperty(t *testing.T) {
	s := New()
	require.NoError(t, s.SetSchemaDefinition(DataIn, "telemetry", mustObjectSchema(t, map[string]string{"value": "bool"}), nil))

	m := msg.CreateEmpty(msg.TypeData)
	require.Nil(t, m.SetProperty("value", value.NewString("not-a-bool")))

	assert.NotNil(t, s.ApplyIngress(DataIn, "telemetry", m))
}

func TestApplyResultNoopWithoutRegisteredResultSchema(t *testing.T) {
	s := New()
	require.NoError(t, s.SetSchemaDefinition(CmdIn, "do_thing", mustObjectSchema(t, nil), nil))

	result := msg.CreateEmpty(msg.TypeCmdResult)
	assert.Nil(t, s.ApplyResult(CmdIn, "do_thing", result))
}

func TestOwnSchemaReturnsNilBeforeRegistration(t *testing.T) {
	s := New()
	assert.Nil(t, s.OwnSchema())
}

func TestOwnSchemaReturnsRegisteredSchema(t *testing.T) {
	s := New()
	own := mustObjectSchema(t, map[string]string{"greeting": "string"}, "greeting")
	s.SetOwnSchema(own, []string{"greeting"})
	assert.Same(t, own, s.OwnSchema())
}
