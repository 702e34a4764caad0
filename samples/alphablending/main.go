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

func quad(center mgl32.Vec2, half float32, color mgl32.Vec4) []Vertex {
	l, r := center.X()-half, center.X()+half
	t, b := center.Y()-half, center.Y()+half
	return []Vertex{
		{Position: mgl32.Vec3{l, t, 0}, Color: color},
		{Position: mgl32.Vec3{r, t, 0}, Color: color},
		{Position: mgl32.Vec3{r, b, 0}, Color: color},
		{Position: mgl32.Vec3{r, b, 0}, Color: color},
		{Position: mgl32.Vec3{l, b, 0}, Color: color},
		{Position: mgl32.Vec3{l, t, 0}, Color: color},
	}
}

// Drawn in order; without depth testing the second quad blends over the first.
var vertices = append(
	quad(mgl32.Vec2{-0.15, -0.15}, 0.4, mgl32.Vec4{1, 0, 0, 0.6}),
	quad(mgl32.Vec2{0.15, 0.15}, 0.4, mgl32.Vec4{0, 0, 1, 0.5})...,
)

type AlphaBlending struct {
	vertexBuffer   *utils.Buffer
	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
}

func (s *AlphaBlending) OnInit(app *framework.Application) error {
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
		"shaders/alphablending/vert.spv",
		"shaders/alphablending/frag.spv",
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
	s.pipeline, err = framework.CreateGraphicsPipeline(app.DeviceDriver, app.RenderPass, framework.GraphicsPipelineOptions{
		Shaders: framework.ShaderStages{Vertex: modules[0], Fragment: modules[1]},
		Bindings: []core1_0.VertexInputBindingDescription{
			{Binding: 0, Stride: int(unsafe.Sizeof(v)), InputRate: core1_0.VertexInputRateVertex},
		},
		Attributes: []core1_0.VertexInputAttributeDescription{
			{Binding: 0, Location: 0, Format: core1_0.FormatR32G32B32SignedFloat, Offset: int(unsafe.Offsetof(v.Position))},
			{Binding: 0, Location: 1, Format: core1_0.FormatR32G32B32A32SignedFloat, Offset: int(unsafe.Offsetof(v.Color))},
		},
		Layout: s.pipelineLayout,
		Blend:  true,
	})
	return err
}

func (s *AlphaBlending) OnUpdate(app *framework.Application, dt float64) error {
	return nil
}

func (s *AlphaBlending) OnRender(app *framework.Application, frame *framework.Frame) error {
	err := app.BeginRenderPass(frame, [4]float32{1, 1, 1, 1})
	if err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	app.SetViewportAndScissor(frame)
	app.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.pipeline)
	app.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})
	app.DeviceDriver.CmdDraw(cmd, len(vertices), 1, 0, 0)
	app.DeviceDriver.CmdEndRenderPass(cmd)
	return nil
}

func (s *AlphaBlending) OnDestroy(app *framework.Application) {
	app.DeviceDriver.DestroyPipeline(s.pipeline, nil)
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Alpha Blending")
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

	err = app.Run(&AlphaBlending{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
