package render

import (
	_ "embed"

	"github.com/gogpu/naga"

	"github.com/gogpu/vpt"
)

//go:embed shaders/reset.wgsl
var resetShaderWGSL string

//go:embed shaders/advance.wgsl
var advanceShaderWGSL string

//go:embed shaders/tonemap.wgsl
var tonemapShaderWGSL string

// compileWGSL compiles a WGSL kernel to SPIR-V words. Compilation failures
// abort engine setup, so they surface as device initialization errors.
func compileWGSL(label, src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "compile %s shader: %v", label, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "compile %s shader: %d-byte SPIR-V output", label, len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
