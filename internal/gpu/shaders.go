// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/scene.wgsl
var sceneShaderSource string

//go:embed shaders/skybox.wgsl
var skyboxShaderSource string

//go:embed shaders/resolve.wgsl
var resolveShaderSource string

//go:embed shaders/post.wgsl
var postShaderSource string

//go:embed shaders/mipgen.wgsl
var mipgenShaderSource string

// shaderSource pairs a module name with its WGSL.
type shaderSource struct {
	name string
	wgsl string
}

// shaderSources lists every module in creation order.
func shaderSources() []shaderSource {
	return []shaderSource{
		{"scene", sceneShaderSource},
		{"skybox", skyboxShaderSource},
		{"resolve", resolveShaderSource},
		{"post", postShaderSource},
		{"mipgen", mipgenShaderSource},
	}
}

// ValidateShaders compiles every embedded module to SPIR-V with naga.
// Real backends run it once at startup so WGSL errors surface with the
// module name before any pipeline is created.
func ValidateShaders() error {
	for _, s := range shaderSources() {
		if s.wgsl == "" {
			return fmt.Errorf("%w: %s shader source is empty", ErrShaderCompile, s.name)
		}
		spirv, err := naga.Compile(s.wgsl)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrShaderCompile, s.name, err)
		}
		slogger().Debug("gpu: shader validated", "module", s.name, "spirv_bytes", len(spirv))
	}
	return nil
}

// createShader creates a shader module, wrapping failures in
// ErrShaderCompile.
func createShader(device hal.Device, label, source string) (hal.ShaderModule, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: %s shader source is empty", ErrShaderCompile, label)
	}
	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, label, err)
	}
	return m, nil
}
