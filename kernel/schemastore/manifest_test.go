package schemastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

const sampleManifest = `{
  "api": {
    "property": { "greeting": { "type": "string" } },
    "required": ["greeting"],
    "cmd_in": [
      {
        "name": "do_thing",
        "property": { "count": { "type": "int32" } },
        "required": ["count"],
        "result": { "property": { "ok": { "type": "bool" } } }
      }
    ],
    "data_in": [
      { "name": "telemetry", "property": { "value": { "type": "float64" } } }
    ]
  }
}`

func TestSetSchemaDefinitionFromManifestPopulatesOwnSchema(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	v := value.NewObject()
	require.NoError(t, v.ObjectMove("greeting", value.NewString("hi")))
	assert.Nil(t, s.ValidateProperties(v))
}

func TestSetSchemaDefinitionFromManifestPopulatesCmdIn(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	entry, ok := s.GetMsgSchema(CmdIn, "do_thing")
	require.True(t, ok)
	require.NotNil(t, entry.Result)
	assert.Equal(t, value.Object, entry.Property.Type)
	assert.Equal(t, value.Object, entry.Result.Type)
}

func TestSetSchemaDefinitionFromManifestPopulatesDataIn(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	entry, ok := s.GetMsgSchema(DataIn, "telemetry")
	require.True(t, ok)
	assert.Nil(t, entry.Result)
}

func TestSetSchemaDefinitionFromManifestMissingAPIErrors(t *testing.T) {
	s := New()
	err := SetSchemaDefinitionFromManifest(s, []byte(`{"not_api": {}}`))
	assert.Error(t, err)
}

func TestApplyIngressAdjustsAndValidatesDataIn(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	m := msg.CreateEmpty(msg.TypeData)
	require.Nil(t, m.SetPropertyFromJSON("value", []byte(`7`))) // widens int->float64

	assert.Nil(t, s.ApplyIngress(DataIn, "telemetry", m))
}

func TestApplyResultValidatesCmdReply(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	result := msg.CreateEmpty(msg.TypeCmdResult)
	require.Nil(t, result.SetPropertyFromJSON("ok", []byte(`true`)))

	assert.Nil(t, s.ApplyResult(CmdIn, "do_thing", result))
}

func TestApplyResultRejectsWrongType(t *testing.T) {
	s := New()
	require.NoError(t, SetSchemaDefinitionFromManifest(s, []byte(sampleManifest)))

	result := msg.CreateEmpty(msg.TypeCmdResult)
	require.Nil(t, result.SetPropertyFromJSON("ok", []byte(`"not-a-bool"`)))

	assert.NotNil(t, s.ApplyResult(CmdIn, "do_thing", result))
}
