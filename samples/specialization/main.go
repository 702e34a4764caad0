package main

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/PAMinerva/LearnVulkan-sub001/framework"
	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
}

var vertices = []Vertex{
	{Position: mgl32.Vec3{0.0, 0.5, 0.0}, Color: mgl32.Vec4{1, 0, 0, 1}},
	{Position: mgl32.Vec3{0.5, -0.5, 0.0}, Color: mgl32.Vec4{0, 1, 0, 1}},
	{Position: mgl32.Vec3{-0.5, -0.5, 0.0}, Color: mgl32.Vec4{0, 0, 1, 1}},
}

// Constant 0 in the fragment shader selects how the interpolated color is
// shaded: 1 keeps it, 0 converts it to grayscale.
const shadingConstant = 0

var variants = []map[uint32]any{
	{shadingConstant: uint32(1)},
	{shadingConstant: uint32(0)},
}

type Specialization struct {
	vertexBuffer   *utils.Buffer
	pipelineLayout core1_0.PipelineLayout
	pipelines      []core1_0.Pipeline
}

func (s *Specialization) OnInit(app *framework.Application) error {
	var err error
	s.vertexBuffer, err = app.Factory.CreateBuffer(len(vertices)*int(unsafe.Sizeof(Vertex{})), core1_0.BufferUsageVertexBuffer,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}
	err = s.vertexBuffer.Write(0, vertices)
	if err != nil {
		return err
	}

	s.pipelineLayout, _, err = app.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	modules, err := utils.LoadShaderModules(app.Device, app.Assets,
		"shaders/specialization/vert.spv",
		"shaders/specialization/frag.spv",
	)
	if err != nil {
		return err
	}
	defer func() {
		for _, module := range modules {
			app.Device.DestroyShaderModule(module)
		}
	}()

	v := Vertex{}
	options := framework.GraphicsPipelineOptions{
		Shaders: framework.ShaderStages{Vertex: modules[0], Fragment: modules[1]},
		Bindings: []core1_0.VertexInputBindingDescription{
			{Binding: 0, Stride: int(unsafe.Sizeof(v)), InputRate: core1_0.VertexInputRateVertex},
		},
		Attributes: []core1_0.VertexInputAttributeDescription{
			{Binding: 0, Location: 0, Format: core1_0.FormatR32G32B32SignedFloat, Offset: int(unsafe.Offsetof(v.Position))},
			{Binding: 0, Location: 1, Format: core1_0.FormatR32G32B32A32SignedFloat, Offset: int(unsafe.Offsetof(v.Color))},
		},
		Layout: s.pipelineLayout,
	}

	for i, constants := range variants {
		options.Specialization = constants
		pipeline, err := framework.CreateGraphicsPipeline(app.DeviceDriver, app.RenderPass, options)
		if err != nil {
			return errors.Wrapf(err, "create pipeline variant %d", i)
		}
		s.pipelines = append(s.pipelines, pipeline)
	}
	return nil
}

func (s *Specialization) OnUpdate(app *framework.Application, dt float64) error {
	return nil
}

// OnRender splits the frame into vertical strips, one per pipeline variant.
func (s *Specialization) OnRender(app *framework.Application, frame *framework.Frame) error {
	err := app.BeginRenderPass(frame, [4]float32{0, 0.2, 0.4, 1})
	if err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	width := frame.Extent.Width / len(s.pipelines)
	app.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})

	for i, pipeline := range s.pipelines {
		x := i * width
		app.DeviceDriver.CmdSetViewport(cmd, core1_0.Viewport{
			X:        float32(x),
			Y:        0,
			Width:    float32(width),
			Height:   float32(frame.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		})
		app.DeviceDriver.CmdSetScissor(cmd, core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: x, Y: 0},
			Extent: core1_0.Extent2D{Width: width, Height: frame.Extent.Height},
		})
		app.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, pipeline)
		app.DeviceDriver.CmdDraw(cmd, len(vertices), 1, 0, 0)
	}

	app.DeviceDriver.CmdEndRenderPass(cmd)
	return nil
}

func (s *Specialization) OnDestroy(app *framework.Application) {
	for _, pipeline := range s.pipelines {
		app.DeviceDriver.DestroyPipeline(pipeline, nil)
	}
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Specialization Constants")
	err := cfg.ProcessCommandLineArgs(os.Args[1:], os.Stdout)
	if errors.Is(err, framework.ErrHelp) {
		return
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := framework.NewLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := framework.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}

	err = app.Run(&Specialization{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
