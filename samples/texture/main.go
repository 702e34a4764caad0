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
	TexCoord mgl32.Vec2
}

var vertices = []Vertex{
	{Position: mgl32.Vec3{-0.5, -0.5, 0}, TexCoord: mgl32.Vec2{0, 0}},
	{Position: mgl32.Vec3{0.5, -0.5, 0}, TexCoord: mgl32.Vec2{1, 0}},
	{Position: mgl32.Vec3{0.5, 0.5, 0}, TexCoord: mgl32.Vec2{1, 1}},
	{Position: mgl32.Vec3{-0.5, 0.5, 0}, TexCoord: mgl32.Vec2{0, 1}},
}

var indices = []uint32{0, 1, 2, 2, 3, 0}

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
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.TexCoord)),
		},
	}
}

type Texture struct {
	vertexBuffer *utils.Buffer
	indexBuffer  *utils.Buffer
	texture      *utils.Image

	descriptorSetLayout core1_0.DescriptorSetLayout
	descriptorPool      core1_0.DescriptorPool
	descriptorSet       core1_0.DescriptorSet
	pipelineLayout      core1_0.PipelineLayout
	pipeline            core1_0.Pipeline
}

func (s *Texture) OnInit(app *framework.Application) error {
	err := s.createGeometry(app)
	if err != nil {
		return err
	}

	s.texture, err = app.LoadTexture("textures/texture.png", core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,
		BorderColor:  core1_0.BorderColorIntOpaqueBlack,
		MipmapMode:   core1_0.SamplerMipmapModeLinear,
		MinLod:       0,
		MaxLod:       0,
	})
	if err != nil {
		return err
	}

	err = s.createDescriptorSet(app)
	if err != nil {
		return err
	}

	return s.createPipeline(app)
}

func (s *Texture) createGeometry(app *framework.Application) error {
	hostVisible := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

	var err error
	s.vertexBuffer, err = app.Factory.CreateBuffer(len(vertices)*int(unsafe.Sizeof(Vertex{})), core1_0.BufferUsageVertexBuffer, hostVisible)
	if err != nil {
		return err
	}
	err = s.vertexBuffer.Write(0, vertices)
	if err != nil {
		return err
	}

	s.indexBuffer, err = app.Factory.CreateBuffer(len(indices)*4, core1_0.BufferUsageIndexBuffer, hostVisible)
	if err != nil {
		return err
	}
	return s.indexBuffer.Write(0, indices)
}

func (s *Texture) createDescriptorSet(app *framework.Application) error {
	var err error
	s.descriptorSetLayout, _, err = app.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,

				StageFlags: core1_0.StageFragment,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}

	s.descriptorPool, _, err = app.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}

	sets, _, err := app.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: s.descriptorPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{s.descriptorSetLayout},
	})
	if err != nil {
		return errors.Wrap(err, "allocate descriptor set")
	}
	s.descriptorSet = sets[0]

	return app.DeviceDriver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          s.descriptorSet,
			DstBinding:      0,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,

			ImageInfo: []core1_0.DescriptorImageInfo{s.texture.Descriptor},
		},
	}, nil)
}

func (s *Texture) createPipeline(app *framework.Application) error {
	var err error
	s.pipelineLayout, _, err = app.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{s.descriptorSetLayout},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	modules, err := utils.LoadShaderModules(app.Device, app.Assets,
		"shaders/texture/vert.spv",
		"shaders/texture/frag.spv",
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

func (s *Texture) OnUpdate(app *framework.Application, dt float64) error {
	return nil
}

func (s *Texture) OnRender(app *framework.Application, frame *framework.Frame) error {
	err := app.BeginRenderPass(frame, [4]float32{0, 0.2, 0.4, 1})
	if err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	app.SetViewportAndScissor(frame)
	app.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.pipeline)
	app.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})
	app.DeviceDriver.CmdBindIndexBuffer(cmd, s.indexBuffer.Handle, 0, core1_0.IndexTypeUInt32)
	app.DeviceDriver.CmdBindDescriptorSets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 0,
		[]core1_0.DescriptorSet{s.descriptorSet}, nil)
	app.DeviceDriver.CmdDrawIndexed(cmd, len(indices), 1, 0, 0, 0)
	app.DeviceDriver.CmdEndRenderPass(cmd)
	return nil
}

func (s *Texture) OnDestroy(app *framework.Application) {
	app.DeviceDriver.DestroyPipeline(s.pipeline, nil)
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	app.DeviceDriver.DestroyDescriptorPool(s.descriptorPool, nil)
	app.DeviceDriver.DestroyDescriptorSetLayout(s.descriptorSetLayout, nil)

	if s.texture != nil {
		s.texture.Destroy(app.Device)
	}
	if s.indexBuffer != nil {
		s.indexBuffer.Destroy(app.Device)
	}
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Texture")
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

	err = app.Run(&Texture{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
