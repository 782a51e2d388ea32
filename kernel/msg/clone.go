package msg

import "github.com/nmxmxh/flowmesh/kernel/value"

// Field names used by the per-variant clone field-table, and as the
// accepted values of the excluded set passed to Clone.
const (
	FieldName       = "name"
	FieldDest       = "dest"
	FieldProperties = "properties"
	FieldCmdID      = "cmd_id"
	FieldStatus     = "status"
	FieldBuf        = "buf"
	FieldData       = "data"
)

// cloneableFields replaces the original's polymorphic field-table with
// a per-variant slice of field names the common+variant-specific
// cloneable header carries (spec §4.4's clone contract); each Msg
// variant knows its own fields rather than sharing a table of getters.
func cloneableFields(kind Type) []string {
	common := []string{FieldName, FieldDest, FieldProperties}
	switch kind {
	case TypeCmd, TypeCmdStartGraph, TypeCmdStopGraph, TypeCmdTimer, TypeCmdCloseApp:
		return append(common, FieldCmdID)
	case TypeCmdResult:
		return append(common, FieldCmdID, FieldStatus)
	case TypeAudioFrame, TypeVideoFrame:
		return append(common, FieldBuf, FieldData)
	default:
		return common
	}
}

func excludes(excluded []string) map[string]bool {
	m := make(map[string]bool, len(excluded))
	for _, f := range excluded {
		m[f] = true
	}
	return m
}

// Clone duplicates msg, copying every field its variant's field-table
// marks cloneable and not named in excludedFields. Buffers are
// deep-copied regardless of the source's ownership (a clone always
// owns its own buffer).
func Clone(m *Msg, excludedFields ...string) (*Msg, error) {
	skip := excludes(excludedFields)
	out := &Msg{kind: m.kind, properties: value.NewObject()}

	for _, f := range cloneableFields(m.kind) {
		if skip[f] {
			continue
		}
		switch f {
		case FieldName:
			out.name = m.name
		case FieldDest:
			out.dest = append([]Loc{}, m.dest...)
		case FieldProperties:
			cp, err := m.properties.Clone()
			if err != nil {
				return nil, err
			}
			out.properties = cp
		case FieldCmdID:
			out.cmdID = m.cmdID
		case FieldStatus:
			out.statusCode = m.statusCode
			out.isFinal = m.isFinal
			out.isCompleted = m.isCompleted
		case FieldBuf:
			if m.buf != nil {
				cp, err := m.buf.Clone()
				if err != nil {
					return nil, err
				}
				out.buf = cp
			}
			out.sampleRate = m.sampleRate
			out.bytesPerSample = m.bytesPerSample
			out.samplesPerChannel = m.samplesPerChannel
			out.numberOfChannel = m.numberOfChannel
			out.channelLayout = m.channelLayout
			out.dataFmt = m.dataFmt
			out.lineSize = m.lineSize
			out.isEOF = m.isEOF
		case FieldData:
			if m.data != nil {
				cp, err := m.data.Clone()
				if err != nil {
					return nil, err
				}
				out.data = cp
			}
			out.pixelFmt = m.pixelFmt
			out.width = m.width
			out.height = m.height
		}
	}
	out.src = m.src
	out.timestamp = m.timestamp
	out.hasLockedRes = m.hasLockedRes
	return out, nil
}
