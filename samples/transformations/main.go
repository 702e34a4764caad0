package main

import (
	"fmt"
	"math"
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
	{Position: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec4{1, 0, 0, 1}},
	{Position: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec4{0, 1, 0, 1}},
	{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec4{0, 0, 1, 1}},
	{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec4{1, 1, 0, 1}},
}

var indices = []uint32{0, 1, 2, 2, 3, 0}

type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
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

// projection returns a right-handed perspective matrix for Vulkan clip space,
// where y points down.
func projection(extent core1_0.Extent2D) mgl32.Mat4 {
	aspectRatio := float32(extent.Width) / float32(extent.Height)
	proj := mgl32.Perspective(mgl32.DegToRad(45), aspectRatio, 0.1, 10)
	proj[5] *= -1
	return proj
}

type Transformations struct {
	vertexBuffer *utils.Buffer
	indexBuffer  *utils.Buffer

	// One uniform buffer and descriptor set per frame.
	uniforms       []*utils.Buffer
	descriptorSets []core1_0.DescriptorSet

	descriptorSetLayout core1_0.DescriptorSetLayout
	descriptorPool      core1_0.DescriptorPool
	pipelineLayout      core1_0.PipelineLayout
	pipeline            core1_0.Pipeline

	angle float64
}

func (s *Transformations) OnInit(app *framework.Application) error {
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
	err = s.indexBuffer.Write(0, indices)
	if err != nil {
		return err
	}

	s.descriptorSetLayout, _, err = app.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,

				StageFlags: core1_0.StageVertex,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}

	err = s.createFrameResources(app)
	if err != nil {
		return err
	}

	s.pipelineLayout, _, err = app.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{s.descriptorSetLayout},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	modules, err := utils.LoadShaderModules(app.Device, app.Assets,
		"shaders/transformations/vert.spv",
		"shaders/transformations/frag.spv",
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

// createFrameResources builds a uniform buffer and a descriptor set pointing
// at it for every frame the application currently has.
func (s *Transformations) createFrameResources(app *framework.Application) error {
	count := len(app.Frames)
	size := int(unsafe.Sizeof(UniformBufferObject{}))

	for i := 0; i < count; i++ {
		uniform, err := app.Factory.CreateBuffer(size, core1_0.BufferUsageUniformBuffer,
			core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
		if err != nil {
			return err
		}
		s.uniforms = append(s.uniforms, uniform)
	}

	var err error
	s.descriptorPool, _, err = app.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: count,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: count,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}

	layouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = s.descriptorSetLayout
	}

	s.descriptorSets, _, err = app.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: s.descriptorPool,
		SetLayouts:     layouts,
	})
	if err != nil {
		return errors.Wrap(err, "allocate descriptor sets")
	}

	writes := make([]core1_0.WriteDescriptorSet, 0, count)
	for i, set := range s.descriptorSets {
		writes = append(writes, core1_0.WriteDescriptorSet{
			DstSet:          set,
			DstBinding:      0,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeUniformBuffer,

			BufferInfo: []core1_0.DescriptorBufferInfo{s.uniforms[i].Descriptor},
		})
	}
	return app.DeviceDriver.UpdateDescriptorSets(writes, nil)
}

func (s *Transformations) destroyFrameResources(app *framework.Application) {
	app.DeviceDriver.DestroyDescriptorPool(s.descriptorPool, nil)
	s.descriptorPool = core1_0.DescriptorPool{}
	s.descriptorSets = nil

	for _, uniform := range s.uniforms {
		uniform.Destroy(app.Device)
	}
	s.uniforms = nil
}

// OnResize rebuilds the per-frame resources since the frame count may change
// with the swapchain.
func (s *Transformations) OnResize(app *framework.Application) error {
	s.destroyFrameResources(app)
	return s.createFrameResources(app)
}

func (s *Transformations) OnUpdate(app *framework.Application, dt float64) error {
	// A quarter turn per second.
	s.angle = math.Mod(s.angle+dt*math.Pi/2, 2*math.Pi)
	return nil
}

func (s *Transformations) OnRender(app *framework.Application, frame *framework.Frame) error {
	ubo := UniformBufferObject{
		Model: mgl32.HomogRotate3DZ(float32(s.angle)),
		View: mgl32.LookAtV(
			mgl32.Vec3{0, 0, 2},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 1, 0},
		),
		Proj: projection(frame.Extent),
	}

	err := s.uniforms[frame.Index].Write(0, &ubo)
	if err != nil {
		return err
	}

	err = app.BeginRenderPass(frame, [4]float32{0, 0.2, 0.4, 1})
	if err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	app.SetViewportAndScissor(frame)
	app.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.pipeline)
	app.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{s.vertexBuffer.Handle}, []int{0})
	app.DeviceDriver.CmdBindIndexBuffer(cmd, s.indexBuffer.Handle, 0, core1_0.IndexTypeUInt32)
	app.DeviceDriver.CmdBindDescriptorSets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 0,
		[]core1_0.DescriptorSet{s.descriptorSets[frame.Index]}, nil)
	app.DeviceDriver.CmdDrawIndexed(cmd, len(indices), 1, 0, 0, 0)
	app.DeviceDriver.CmdEndRenderPass(cmd)
	return nil
}

func (s *Transformations) OnDestroy(app *framework.Application) {
	app.DeviceDriver.DestroyPipeline(s.pipeline, nil)
	app.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	s.destroyFrameResources(app)
	app.DeviceDriver.DestroyDescriptorSetLayout(s.descriptorSetLayout, nil)

	if s.indexBuffer != nil {
		s.indexBuffer.Destroy(app.Device)
	}
	if s.vertexBuffer != nil {
		s.vertexBuffer.Destroy(app.Device)
	}
}

func main() {
	runtime.LockOSThread()

	cfg := framework.DefaultConfig("Transformations")
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

	err = app.Run(&Transformations{})
	if err != nil {
		logger.Error("sample failed", "error", err)
		os.Exit(1)
	}
}
