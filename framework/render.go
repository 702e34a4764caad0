package framework

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// CreateRenderPass creates a single-subpass pass with one color attachment
// that is cleared on load and left ready for presentation.
func CreateRenderPass(driver core1_0.CoreDeviceDriver, format core1_0.Format) (core1_0.RenderPass, error) {
	renderPass, _, err := driver.CreateRenderPass(nil, renderPassInfo(format))
	return renderPass, err
}

func renderPassInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

func (a *Application) createRenderPass() error {
	var err error
	a.RenderPass, err = CreateRenderPass(a.DeviceDriver, a.Swapchain.Format)
	return err
}

// BeginRenderPass starts the application render pass on frame, clearing the
// color attachment to clear.
func (a *Application) BeginRenderPass(frame *Frame, clear [4]float32) error {
	return a.DeviceDriver.CmdBeginRenderPass(frame.CommandBuffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  a.RenderPass,
			Framebuffer: frame.Framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: frame.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear[0], clear[1], clear[2], clear[3]},
			},
		})
}

// SetViewportAndScissor covers the whole frame. Pipelines built by
// CreateGraphicsPipeline leave both dynamic.
func (a *Application) SetViewportAndScissor(frame *Frame) {
	a.DeviceDriver.CmdSetViewport(frame.CommandBuffer, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(frame.Extent.Width),
		Height:   float32(frame.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	a.DeviceDriver.CmdSetScissor(frame.CommandBuffer, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: frame.Extent,
	})
}

// ShaderStages names the modules a graphics pipeline runs.
type ShaderStages struct {
	Vertex   core1_0.ShaderModule
	Fragment core1_0.ShaderModule
}

type GraphicsPipelineOptions struct {
	Shaders    ShaderStages
	Bindings   []core1_0.VertexInputBindingDescription
	Attributes []core1_0.VertexInputAttributeDescription
	Layout     core1_0.PipelineLayout
	Topology   core1_0.PrimitiveTopology
	// Blend enables src-alpha / one-minus-src-alpha blending.
	Blend bool
	// Specialization holds constant id to value pairs for the fragment stage.
	Specialization map[uint32]any
}

func CreateGraphicsPipeline(driver core1_0.CoreDeviceDriver, renderPass core1_0.RenderPass, o GraphicsPipelineOptions) (core1_0.Pipeline, error) {
	pipelines, _, err := driver.CreateGraphicsPipelines(nil, nil, graphicsPipelineInfo(renderPass, o))
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	return pipelines[0], nil
}

func graphicsPipelineInfo(renderPass core1_0.RenderPass, o GraphicsPipelineOptions) core1_0.GraphicsPipelineCreateInfo {
	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: o.Shaders.Vertex,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:              core1_0.StageFragment,
		Module:             o.Shaders.Fragment,
		Name:               "main",
		SpecializationInfo: o.Specialization,
	}

	topology := o.Topology
	if topology == 0 {
		topology = core1_0.PrimitiveTopologyTriangleList
	}

	blend := core1_0.PipelineColorBlendAttachmentState{
		BlendEnabled:   false,
		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
	if o.Blend {
		blend.BlendEnabled = true
		blend.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		blend.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		blend.ColorBlendOp = core1_0.BlendOpAdd
		blend.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		blend.DstAlphaBlendFactor = core1_0.BlendFactorZero
		blend.AlphaBlendOp = core1_0.BlendOpAdd
	}

	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			vertStage,
			fragStage,
		},
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   o.Bindings,
			VertexAttributeDescriptions: o.Attributes,
		},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               topology,
			PrimitiveRestartEnable: false,
		},
		// Placeholders; the real values are set per frame.
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{{}},
			Scissors:  []core1_0.Rect2D{{}},
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeNone,
			FrontFace:   core1_0.FrontFaceClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			BlendConstants: [4]float32{0, 0, 0, 0},
			Attachments:    []core1_0.PipelineColorBlendAttachmentState{blend},
		},
		DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor},
		},
		Layout:            o.Layout,
		RenderPass:        renderPass,
		Subpass:           0,
		BasePipelineIndex: -1,
	}
}
