// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/golang/geo/r3"

	"github.com/gogpu/globe"
)

// Uploader errors.
var (
	// ErrClosed is returned by Attach after Close.
	ErrClosed = errors.New("render: uploader closed")

	// ErrDuplicateID is returned when Attach is called twice for one id.
	ErrDuplicateID = errors.New("render: id already attached")

	// ErrUnknownID is returned by Detach for an id that is not attached.
	ErrUnknownID = errors.New("render: id not attached")
)

// Option configures an Uploader.
type Option func(*uploaderConfig)

type uploaderConfig struct {
	format gputypes.TextureFormat
	spirv  bool
}

// WithFormat sets the color target format of every pipeline.
// The default is BGRA8Unorm.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(c *uploaderConfig) { c.format = f }
}

// WithSPIRV makes the uploader compile shaders to SPIR-V with naga instead
// of handing WGSL source to the device.
func WithSPIRV(on bool) Option {
	return func(c *uploaderConfig) { c.spirv = on }
}

// Uploader moves primitive trees built by a globe.Globe into GPU buffers.
// It implements globe.SceneGraph: Attach uploads a tree, Detach releases
// its buffers. Labels are counted but not uploaded; text is rasterized by
// the host.
//
// Thread Safety: Uploader is safe for concurrent use.
type Uploader struct {
	device hal.Device
	queue  hal.Queue

	mu         sync.Mutex
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	camera     hal.Buffer
	pipelines  map[string]*pipeline
	entries    map[string]*entry
	order      []string
	closed     bool
}

type pipeline struct {
	preset Preset
	shader hal.ShaderModule
	pipe   hal.RenderPipeline
}

type entry struct {
	draws  []*drawCall
	labels int
}

type drawCall struct {
	preset   string
	vertices hal.Buffer
	uniform  hal.Buffer
	bind     hal.BindGroup
	count    uint32
	bytes    uint64
}

// Draw describes one recorded draw.
type Draw struct {
	ID       string
	Preset   string
	Vertices uint32
}

// Stats summarizes the uploaded resources.
type Stats struct {
	Handles int
	Draws   int
	Labels  int
	Buffers int
	Bytes   uint64
}

var _ globe.SceneGraph = (*Uploader)(nil)

// NewUploader creates the shared camera uniform and one render pipeline
// per preset on device.
func NewUploader(device hal.Device, queue hal.Queue, opts ...Option) (*Uploader, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("render: nil device or queue")
	}
	cfg := uploaderConfig{format: gputypes.TextureFormatBGRA8Unorm}
	for _, opt := range opts {
		opt(&cfg)
	}

	u := &Uploader{
		device:    device,
		queue:     queue,
		pipelines: make(map[string]*pipeline),
		entries:   make(map[string]*entry),
	}
	if err := u.createPipelines(cfg); err != nil {
		u.destroyPipelines()
		return nil, err
	}

	camera, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "globe_camera",
		Size:  cameraUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		u.destroyPipelines()
		return nil, fmt.Errorf("render: create camera uniform: %w", err)
	}
	u.camera = camera
	u.SetCamera(identity(), r3.Vector{Z: 1})

	globe.Logger().Debug("render: uploader ready",
		"pipelines", len(u.pipelines),
		"spirv", cfg.spirv)
	return u, nil
}

func (u *Uploader) createPipelines(cfg uploaderConfig) error {
	layout, err := u.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "globe_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create uniform layout: %w", err)
	}
	u.layout = layout

	pipeLayout, err := u.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "globe_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{u.layout},
	})
	if err != nil {
		return fmt.Errorf("render: create pipeline layout: %w", err)
	}
	u.pipeLayout = pipeLayout

	for _, p := range Presets() {
		pl, err := u.createPipeline(p, cfg)
		if err != nil {
			return err
		}
		u.pipelines[p.Name] = pl
	}
	return nil
}

func (u *Uploader) createPipeline(p Preset, cfg uploaderConfig) (*pipeline, error) {
	source := hal.ShaderSource{WGSL: p.Source}
	if cfg.spirv {
		words, err := p.SPIRV()
		if err != nil {
			return nil, err
		}
		source = hal.ShaderSource{SPIRV: words}
	}
	shader, err := u.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "globe_" + p.Name + "_shader",
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("render: compile %s shader: %w", p.Name, err)
	}

	target := gputypes.ColorTargetState{
		Format:    cfg.format,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if p.Blend {
		blend := gputypes.BlendStatePremultiplied()
		target.Blend = &blend
	}
	pipe, err := u.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "globe_" + p.Name + "_pipeline",
		Layout: u.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    p.Layout,
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: p.Topology,
			CullMode: p.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		u.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("render: create %s pipeline: %w", p.Name, err)
	}
	return &pipeline{preset: p, shader: shader, pipe: pipe}, nil
}

// SetCamera uploads the view-projection matrix, column-major, and the eye
// position used for lighting.
func (u *Uploader) SetCamera(viewProj [16]float32, eye r3.Vector) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed || u.camera == nil {
		return
	}
	u.queue.WriteBuffer(u.camera, 0, packCamera(viewProj, eye))
}

// Attach uploads every mesh and line under p.
func (u *Uploader) Attach(id string, p globe.Primitive) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	if _, ok := u.entries[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	e := &entry{}
	var err error
	globe.Walk(p, func(node globe.Primitive) bool {
		if err != nil {
			return false
		}
		switch v := node.(type) {
		case *globe.Mesh:
			data, n := PackMesh(v)
			err = u.upload(e, id, MaterialPreset(v.Material).Name, data, n, v.Color)
		case *globe.Line:
			if len(v.Points) < 2 {
				return true
			}
			data, n := PackLine(v)
			err = u.upload(e, id, PresetLine, data, n, v.Color)
		case *globe.Label:
			e.labels++
		}
		return true
	})
	if err != nil {
		e.release(u.device)
		return fmt.Errorf("render: attach %s: %w", id, err)
	}

	u.entries[id] = e
	u.order = append(u.order, id)
	globe.Logger().Debug("render: attached",
		"id", id,
		"draws", len(e.draws),
		"labels", e.labels)
	return nil
}

// upload creates the vertex and uniform buffers and the bind group of one
// draw and appends it to e.
func (u *Uploader) upload(e *entry, id, preset string, data []byte, count uint32, c color.RGBA) error {
	if count == 0 {
		return nil
	}
	d := &drawCall{preset: preset, count: count, bytes: uint64(len(data))}
	e.draws = append(e.draws, d)

	var err error
	d.vertices, err = u.createAndUploadBuffer(id+"/vertices", data, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.uniform, err = u.createAndUploadBuffer(id+"/draw", packColor(c), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	d.bytes += drawUniformSize

	d.bind, err = u.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  id + "/bind",
		Layout: u.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: u.camera.NativeHandle(), Offset: 0, Size: cameraUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: d.uniform.NativeHandle(), Offset: 0, Size: drawUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (u *Uploader) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	u.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Detach releases the buffers uploaded for id.
func (u *Uploader) Detach(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	e, ok := u.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	e.release(u.device)
	delete(u.entries, id)
	u.order = slices.DeleteFunc(u.order, func(v string) bool { return v == id })
	return nil
}

func (e *entry) release(device hal.Device) {
	for _, d := range e.draws {
		if d.bind != nil {
			device.DestroyBindGroup(d.bind)
		}
		if d.uniform != nil {
			device.DestroyBuffer(d.uniform)
		}
		if d.vertices != nil {
			device.DestroyBuffer(d.vertices)
		}
	}
	e.draws = nil
}

// Draws returns the draws Record would issue, in order: by preset order,
// then by attach order.
func (u *Uploader) Draws() []Draw {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []Draw
	u.eachDraw(func(id string, d *drawCall) {
		out = append(out, Draw{ID: id, Preset: d.preset, Vertices: d.count})
	})
	return out
}

// Record issues every draw into rp. The camera must have been set.
func (u *Uploader) Record(rp hal.RenderPassEncoder) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	current := ""
	u.eachDraw(func(_ string, d *drawCall) {
		if d.preset != current {
			rp.SetPipeline(u.pipelines[d.preset].pipe)
			current = d.preset
		}
		rp.SetBindGroup(0, d.bind, nil)
		rp.SetVertexBuffer(0, d.vertices, 0)
		rp.Draw(d.count, 1, 0, 0)
	})
}

func (u *Uploader) eachDraw(fn func(id string, d *drawCall)) {
	for _, p := range Presets() {
		for _, id := range u.order {
			for _, d := range u.entries[id].draws {
				if d.preset == p.Name {
					fn(id, d)
				}
			}
		}
	}
}

// Stats returns a summary of the attached resources.
func (u *Uploader) Stats() Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := Stats{Handles: len(u.entries)}
	for _, e := range u.entries {
		s.Labels += e.labels
		for _, d := range e.draws {
			s.Draws++
			s.Buffers += 2
			s.Bytes += d.bytes
		}
	}
	return s
}

// Close releases every attached buffer, the pipelines and the camera
// uniform. It does not destroy the device.
func (u *Uploader) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	for _, e := range u.entries {
		e.release(u.device)
	}
	clear(u.entries)
	u.order = nil
	if u.camera != nil {
		u.device.DestroyBuffer(u.camera)
		u.camera = nil
	}
	u.destroyPipelines()
	return nil
}

// destroyPipelines releases the pipelines and both layouts.
func (u *Uploader) destroyPipelines() {
	for name, p := range u.pipelines {
		if p.pipe != nil {
			u.device.DestroyRenderPipeline(p.pipe)
		}
		if p.shader != nil {
			u.device.DestroyShaderModule(p.shader)
		}
		delete(u.pipelines, name)
	}
	if u.pipeLayout != nil {
		u.device.DestroyPipelineLayout(u.pipeLayout)
		u.pipeLayout = nil
	}
	if u.layout != nil {
		u.device.DestroyBindGroupLayout(u.layout)
		u.layout = nil
	}
}

func identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
