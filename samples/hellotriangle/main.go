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
	{Position: mgl32.Vec3{0.0, 0.25, 0.0}, Color: mgl32.Vec4{1, 0, 0, 1}},
	{Position: mgl32.Vec3{0.25, -0.25, 0.0}, Color: mgl32.Vec4{0, 1, 0, 1}},
	{Position: mgl32.Vec3{-0.25, -0.25, 0.0}, Color: mgl32.Vec4{0, 0, 1, 1}},
}

func vertexBindings() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func vertexAttributes() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32A32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

type HelloTriangle struct {
	vertexBuffer   *utils.Buffer
	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
}

func (s *HelloTriangle) OnInit(app *framework.Application) error {
	var err error
	size := len(vertices) * int(unsafe.Sizeof(Vertex{}))
	s.vertexBuffer, err = app.Factory.CreateBuffer(size, core1_0.BufferUsageVertexBuffer,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}

	// The buffer stays mapped; the triangle never changes so one write is enough.
	err = s.vertexBuffer.Write(0, vertices)
	if err != nil {
		return err
	}

	s.pipelineLayout, _, err = app.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	modules, err := utils.LoadShaderModules(app.Device, app.Assets,
		"shaders/hellotriangle/vert.spv",
		"shaders/hellotriangle/frag.spv",
	)
	if err != nil {
		return err
	}
	defer func() {
		for _, module := range modules {
			app.Device.DestroyShaderModule(module)
		}
	}()

	s.pipeline, err = framework.CreateGraphicsPipeline(app.DeviceDriver, app.RenderPass, framework.GraphicsPipelineOptions{
		Shaders:    framework.ShaderStages{Vertex: modules[0], Fragment: modules[1]},
		Bindings:   vertexBindings(),
		Attributes: vertexAttributes(),
		Layout:     s.pipelineLayout,
	})
	return err
}

func (s *HelloTriangle) OnUpdate(app *framework.Application, dt float64) error {
	return nil
}

func (s *HelloTriangle) OnRender(app *framework.Application, frame *framework.Frame) error {
	err := app.BeginRenderPass(frame, [4]float32{0, 0.2, 0.4, 1})
	if err != nil {
		return err
	}

	app.SetViewportAndScissor(frame)
	app.DeviceDriver.CmdBindPipeline(frame.CommandBuffer, core1_0.PipelineBindPointGraphics, s.pipeline)
	app.DeviceDriver.CmdBindVertexBuffers(frame.CommandBuffer, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})
	app.DeviceDriver.CmdDraw(frame.CommandBuffer, len(vertices), 1, 0, 0)
	app.DeviceDriver.CmdEndRenderPass(frame.CommandBuffer)
	return nil
}

func (s *HelloTriangle) OnDestroy(app *framework.Application) {
	app.DeviceDriver.DestroyPipeline(s.pipeline, nil)
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Hello Triangle")
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

	err = app.Run(&HelloTriangle{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
