package gpucore

// CommandType distinguishes the commands of a CommandList.
type CommandType uint8

// Command types.
const (
	// CommandClearRenderBuffer clears State.RenderBufferID to transparent.
	CommandClearRenderBuffer CommandType = iota

	// CommandDrawGeometry draws IndicesCount indices of GeometryID
	// starting at IndicesOffset with State.
	CommandDrawGeometry
)

// String returns a human-readable name for the command type.
func (t CommandType) String() string {
	if t == CommandClearRenderBuffer {
		return "clear"
	}
	return "draw"
}

// Command is one instruction of a CommandList.
type Command struct {
	Type          CommandType
	State         GPUState
	GeometryID    GeometryID
	IndicesCount  uint32
	IndicesOffset uint32
}

// ClearCommand returns a command that clears target.
func ClearCommand(target RenderBufferID) Command {
	return Command{
		Type:  CommandClearRenderBuffer,
		State: GPUState{RenderBufferID: target},
	}
}

// DrawCommand returns a command that draws geometry with state.
func DrawCommand(geometry GeometryID, count, offset uint32, state GPUState) Command {
	return Command{
		Type:          CommandDrawGeometry,
		State:         state,
		GeometryID:    geometry,
		IndicesCount:  count,
		IndicesOffset: offset,
	}
}

// CommandList is an ordered batch of commands executed once per frame.
type CommandList []Command

// Clone returns a copy that shares no memory with l.
func (l CommandList) Clone() CommandList {
	if len(l) == 0 {
		return nil
	}
	c := make(CommandList, len(l))
	copy(c, l)
	return c
}
