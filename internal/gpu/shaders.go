//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/fill.wgsl
var fillShaderSource string

//go:embed shaders/fill_path.wgsl
var fillPathShaderSource string

const shaderCount = int(gpucore.ShaderTypeCount)

// shaderInfo is one entry of the shader table.
type shaderInfo struct {
	label  string
	source string
	format gpucore.VertexFormat
}

// shaderTable is indexed by gpucore.ShaderType.
var shaderTable = [shaderCount]shaderInfo{
	gpucore.ShaderFill:     {label: "fill", source: fillShaderSource, format: gpucore.VertexFormat2f4ub2f2f28f},
	gpucore.ShaderFillPath: {label: "fill_path", source: fillPathShaderSource, format: gpucore.VertexFormat2f4ub2f},
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	b, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words, nil
}

// shader returns the module for s, creating it on first use.
func (d *Device) shader(s gpucore.ShaderType) (hal.ShaderModule, error) {
	if int(s) >= shaderCount {
		return nil, fmt.Errorf("gpu: unknown shader type %d", s)
	}
	if m := d.shaders[s]; m != nil {
		return m, nil
	}
	info := shaderTable[s]
	src := hal.ShaderSource{WGSL: info.source}
	if d.opts.spirv {
		words, err := compileSPIRV(info.source)
		if err != nil {
			return nil, fmt.Errorf("compile %s shader to SPIR-V: %w", info.label, err)
		}
		src = hal.ShaderSource{SPIRV: words}
	}
	m, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  d.label(info.label + "_shader"),
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", info.label, err)
	}
	d.shaders[s] = m
	return m, nil
}
