package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/PAMinerva/LearnVulkan-sub001/framework"
	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

type Vertex struct {
	Position mgl32.Vec3
}

var vertices = []Vertex{
	{Position: mgl32.Vec3{0.0, 0.25, 0.0}},
	{Position: mgl32.Vec3{0.25, -0.25, 0.0}},
	{Position: mgl32.Vec3{-0.25, -0.25, 0.0}},
}

// PushConstants mirrors the shader's push constant block; the vec4 is
// aligned to 16 bytes.
type PushConstants struct {
	Offset mgl32.Vec2
	_      [2]float32
	Color  mgl32.Vec4
}

var draws = []PushConstants{
	{Offset: mgl32.Vec2{-0.4, 0}, Color: mgl32.Vec4{1, 0.5, 0, 1}},
	{Offset: mgl32.Vec2{0.4, 0}, Color: mgl32.Vec4{0, 0.5, 1, 1}},
}

func (p PushConstants) Bytes() ([]byte, error) {
	writer := bytes.NewBuffer(make([]byte, 0, unsafe.Sizeof(p)))
	err := binary.Write(writer, common.ByteOrder, p)
	if err != nil {
		return nil, err
	}
	return writer.Bytes(), nil
}

type PushConstantsSample struct {
	vertexBuffer   *utils.Buffer
	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
	pushData       [][]byte
}

func (s *PushConstantsSample) OnInit(app *framework.Application) error {
	for _, draw := range draws {
		data, err := draw.Bytes()
		if err != nil {
			return errors.Wrap(err, "encode push constants")
		}
		s.pushData = append(s.pushData, data)
	}

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

	s.pipelineLayout, _, err = app.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageVertex | core1_0.StageFragment,
				Offset:     0,
				Size:       int(unsafe.Sizeof(PushConstants{})),
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	modules, err := utils.LoadShaderModules(app.Device, app.Assets,
		"shaders/pushconstants/vert.spv",
		"shaders/pushconstants/frag.spv",
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
		},
		Layout: s.pipelineLayout,
	})
	return err
}

func (s *PushConstantsSample) OnUpdate(app *framework.Application, dt float64) error {
	return nil
}

func (s *PushConstantsSample) OnRender(app *framework.Application, frame *framework.Frame) error {
	err := app.BeginRenderPass(frame, [4]float32{0, 0.2, 0.4, 1})
	if err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	app.SetViewportAndScissor(frame)
	app.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.pipeline)
	app.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})
	for _, data := range s.pushData {
		app.DeviceDriver.CmdPushConstants(cmd, s.pipelineLayout, core1_0.StageVertex|core1_0.StageFragment, 0, data)
		app.DeviceDriver.CmdDraw(cmd, len(vertices), 1, 0, 0)
	}
	app.DeviceDriver.CmdEndRenderPass(cmd)
	return nil
}

func (s *PushConstantsSample) OnDestroy(app *framework.Application) {
	app.DeviceDriver.DestroyPipeline(s.pipeline, nil)
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Push Constants")
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

	err = app.Run(&PushConstantsSample{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
