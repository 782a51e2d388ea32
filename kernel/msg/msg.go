// Package msg implements the polymorphic message family (C4): command,
// command-result, data, audio-frame, video-frame and the graph/app
// control commands, plus cmd/result correlation. Each variant carries a
// common header and its own scalar fields; the property tree underneath
// always goes through kernel/value.
package msg

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// Type enumerates the message variant set.
type Type int

const (
	TypeInvalid Type = iota
	TypeCmd
	TypeCmdResult
	TypeData
	TypeAudioFrame
	TypeVideoFrame
	TypeCmdStartGraph
	TypeCmdStopGraph
	TypeCmdTimer
	TypeCmdCloseApp
)

func (t Type) String() string {
	switch t {
	case TypeCmd:
		return "cmd"
	case TypeCmdResult:
		return "cmd_result"
	case TypeData:
		return "data"
	case TypeAudioFrame:
		return "audio_frame"
	case TypeVideoFrame:
		return "video_frame"
	case TypeCmdStartGraph:
		return "cmd_start_graph"
	case TypeCmdStopGraph:
		return "cmd_stop_graph"
	case TypeCmdTimer:
		return "cmd_timer"
	case TypeCmdCloseApp:
		return "cmd_close_app"
	default:
		return "invalid"
	}
}

// IsCommand reports whether t carries cmd/result correlation.
func (t Type) IsCommand() bool {
	switch t {
	case TypeCmd, TypeCmdStartGraph, TypeCmdStopGraph, TypeCmdTimer, TypeCmdCloseApp:
		return true
	default:
		return false
	}
}

// ReservedPrefix is the framework-internal message-name prefix;
// extension-authored messages may not start with it.
const ReservedPrefix = "flow:"

// Loc identifies a message endpoint: an app reachable at a URI, a graph
// within it, and optionally a specific extension-group/extension.
type Loc struct {
	AppURI         string
	GraphID        string
	ExtensionGroup string
	Extension      string
}

// DataFmt is the audio-frame sample interleaving mode.
type DataFmt int

const (
	DataFmtInterleave DataFmt = iota
	DataFmtNonInterleave
)

// PixelFmt is the video-frame pixel format tag. The set is small and
// closed for this substrate; protocol adapters translate to/from their
// own enums.
type PixelFmt int

const (
	PixelFmtUnknown PixelFmt = iota
	PixelFmtRGB24
	PixelFmtYUV420P
	PixelFmtNV12
)

// Msg is the single representation for every variant; fields outside a
// variant's field-table (see cloneableFields in clone.go) are zero and
// ignored.
type Msg struct {
	kind Type
	name string

	src  Loc
	dest []Loc

	properties *value.Value
	timestamp  time.Time
	hasLockedRes bool

	// cmd fields
	cmdID         string
	resultHandler ResultHandler

	// cmd-result fields
	statusCode  StatusCode
	isFinal     bool
	isCompleted bool

	// audio-frame fields
	sampleRate        uint32
	bytesPerSample    uint32
	samplesPerChannel uint32
	numberOfChannel   uint32
	channelLayout     uint64
	dataFmt           DataFmt
	lineSize          uint32
	isEOF             bool
	buf               *value.Value

	// video-frame fields
	pixelFmt PixelFmt
	width    uint32
	height   uint32
	data     *value.Value
}

// StatusCode is a command-result status. OK and ERROR are the two
// built-in codes; any other u32 is a user-defined code.
type StatusCode uint32

const (
	StatusOK    StatusCode = 0
	StatusError StatusCode = 1
)

// ResultHandler receives each cmd-result for a sent command.
type ResultHandler func(result *Msg)

// ValidateName rejects names that collide with the reserved prefix.
// create_empty() variants (name == "") are exempt — data/audio/video
// frames carry no name at all.
func ValidateName(name string) *flowerr.Error {
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return flowerr.New(flowerr.CodeInvalidArgument, "message name %q uses the reserved prefix %q", name, ReservedPrefix)
	}
	return nil
}

// CreateEmpty builds a header-only message of the given variant, with
// no name and an empty property tree.
func CreateEmpty(kind Type) *Msg {
	return &Msg{kind: kind, properties: value.NewObject()}
}

// Create builds a named message, validating name against the reserved
// prefix.
func Create(kind Type, name string) (*Msg, *flowerr.Error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	m := CreateEmpty(kind)
	m.name = name
	return m, nil
}

func (m *Msg) Type() Type { return m.kind }
func (m *Msg) Name() string { return m.name }
func (m *Msg) Src() Loc { return m.src }
func (m *Msg) Dest() []Loc { return append([]Loc{}, m.dest...) }
func (m *Msg) HasLockedRes() bool { return m.hasLockedRes }
func (m *Msg) Timestamp() time.Time { return m.timestamp }
func (m *Msg) CmdID() string { return m.cmdID }

func (m *Msg) SetSrc(loc Loc) { m.src = loc }

// SetDest replaces the destination list atomically (spec §4.4).
func (m *Msg) SetDest(dests ...Loc) {
	m.dest = append([]Loc{}, dests...)
}

func (m *Msg) SetTimestamp(t time.Time) { m.timestamp = t }
func (m *Msg) SetHasLockedRes(b bool)   { m.hasLockedRes = b }

// EnsureCmdID assigns a fresh UUID-shaped cmd_id if the message is a
// command and currently has none (spec §4.7, scenario S7).
func (m *Msg) EnsureCmdID() {
	if m.kind.IsCommand() && m.cmdID == "" {
		m.cmdID = uuid.NewString()
	}
}

func (m *Msg) SetCmdID(id string)                    { m.cmdID = id }
func (m *Msg) SetResultHandler(h ResultHandler)       { m.resultHandler = h }
func (m *Msg) ResultHandlerFn() ResultHandler         { return m.resultHandler }

func (m *Msg) StatusCode() StatusCode { return m.statusCode }
func (m *Msg) IsFinal() bool          { return m.isFinal }
func (m *Msg) IsCompleted() bool      { return m.isCompleted }

func (m *Msg) SetStatusCode(c StatusCode) { m.statusCode = c }

// SetIsFinal/SetIsCompleted enforce the invariant that a terminal
// result always has is_final=true (spec §6: "a terminal result always
// has is_final=true").
func (m *Msg) SetIsCompleted(completed bool) {
	m.isCompleted = completed
	if completed {
		m.isFinal = true
	}
}
func (m *Msg) SetIsFinal(final bool) {
	if !final && m.isCompleted {
		return // completed implies final; refuse to un-set it
	}
	m.isFinal = final
}

// Properties returns a borrow of the property tree; callers must not
// retain it past the message's lifetime.
func (m *Msg) Properties() *value.Value { return m.properties }

// SetProperty moves v into the property tree at path. On failure v is
// destroyed rather than left dangling (resolves the ownership Open
// Question: the callee always takes ownership of v).
func (m *Msg) SetProperty(path string, v *value.Value) *flowerr.Error {
	if err := value.SetFromPathStrWithMove(m.properties, path, v); err != nil {
		v.Destroy()
		return err
	}
	return nil
}

// SetPropertyFromJSON parses raw as JSON first; a parse failure never
// reaches SetProperty, so there is exactly one failure path and no
// partial state (resolves the leak-path Open Question).
func (m *Msg) SetPropertyFromJSON(path string, raw []byte) *flowerr.Error {
	v, err := value.FromJSON(raw)
	if err != nil {
		return err
	}
	return m.SetProperty(path, v)
}

// GetProperty borrows the Value at path.
func (m *Msg) GetProperty(path string) (*value.Value, *flowerr.Error) {
	return value.PeekFromPath(m.properties, path)
}

// AllocBuf gives the audio-frame its own owned buffer.
func (m *Msg) AllocBuf(size int) {
	m.buf = value.NewBufOwned(make([]byte, size))
}

// SetUnownedBuf attaches a caller-provided buffer the frame does not own; its
// lifetime must outlive the message (spec §4.4).
func (m *Msg) SetUnownedBuf(b []byte) {
	m.buf = value.NewBufUnowned(b)
}

func (m *Msg) Buf() *value.Value { return m.buf }

func (m *Msg) SetAudioFormat(sampleRate, bytesPerSample, samplesPerChannel, numberOfChannel uint32, channelLayout uint64, fmt DataFmt, lineSize uint32) {
	m.sampleRate = sampleRate
	m.bytesPerSample = bytesPerSample
	m.samplesPerChannel = samplesPerChannel
	m.numberOfChannel = numberOfChannel
	m.channelLayout = channelLayout
	m.dataFmt = fmt
	m.lineSize = lineSize
}

func (m *Msg) SetIsEOF(b bool) { m.isEOF = b }
func (m *Msg) IsEOF() bool     { return m.isEOF }

func (m *Msg) SetVideoFormat(pixelFmt PixelFmt, width, height uint32) {
	m.pixelFmt = pixelFmt
	m.width = width
	m.height = height
}

func (m *Msg) SetData(b *value.Value) { m.data = b }
func (m *Msg) Data() *value.Value     { return m.data }
