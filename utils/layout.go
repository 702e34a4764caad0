package utils

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// DestinationAccess returns the access mask a barrier into newLayout has to
// make available. It depends on the new layout alone.
func DestinationAccess(newLayout core1_0.ImageLayout) core1_0.AccessFlags {
	switch newLayout {
	case core1_0.ImageLayoutTransferDstOptimal:
		return core1_0.AccessTransferWrite
	case core1_0.ImageLayoutColorAttachmentOptimal:
		return core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return core1_0.AccessDepthStencilAttachmentWrite
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return core1_0.AccessShaderRead | core1_0.AccessInputAttachmentRead
	case core1_0.ImageLayoutTransferSrcOptimal:
		return core1_0.AccessTransferRead
	case khr_swapchain.ImageLayoutPresentSrc:
		return core1_0.AccessMemoryRead
	}
	return 0
}

// TransitionImageLayout records one image memory barrier moving the first mip
// level and array layer of image from oldLayout to newLayout. It only records;
// nothing runs until the command buffer is submitted.
func TransitionImageLayout(
	recorder BarrierRecorder,
	commandBuffer core1_0.CommandBuffer,
	image core1_0.Image,
	aspect core1_0.ImageAspectFlags,
	oldLayout, newLayout core1_0.ImageLayout,
	srcAccess core1_0.AccessFlags,
	srcStage, dstStage core1_0.PipelineStageFlags,
) error {
	barrier := core1_0.ImageMemoryBarrier{
		SrcAccessMask:       srcAccess,
		DstAccessMask:       DestinationAccess(newLayout),
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: -1,
		DstQueueFamilyIndex: -1,
		Image:               image,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	return recorder.CmdPipelineBarrier(commandBuffer, srcStage, dstStage, []core1_0.ImageMemoryBarrier{barrier})
}

// Transition records a barrier from the image's tracked layout to newLayout
// and tracks newLayout from then on.
func (i *Image) Transition(
	recorder BarrierRecorder,
	commandBuffer core1_0.CommandBuffer,
	newLayout core1_0.ImageLayout,
	srcAccess core1_0.AccessFlags,
	srcStage, dstStage core1_0.PipelineStageFlags,
) error {
	aspect := i.Aspect
	if aspect == 0 {
		aspect = core1_0.ImageAspectColor
	}

	err := TransitionImageLayout(recorder, commandBuffer, i.Handle, aspect, i.layout, newLayout, srcAccess, srcStage, dstStage)
	if err != nil {
		return err
	}

	i.layout = newLayout
	i.Descriptor.ImageLayout = newLayout
	return nil
}
