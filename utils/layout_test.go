package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func TestDestinationAccess(t *testing.T) {
	testCases := []struct {
		layout core1_0.ImageLayout
		access core1_0.AccessFlags
	}{
		{core1_0.ImageLayoutTransferDstOptimal, core1_0.AccessTransferWrite},
		{core1_0.ImageLayoutColorAttachmentOptimal, core1_0.AccessColorAttachmentWrite},
		{core1_0.ImageLayoutDepthStencilAttachmentOptimal, core1_0.AccessDepthStencilAttachmentWrite},
		{core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.AccessShaderRead | core1_0.AccessInputAttachmentRead},
		{core1_0.ImageLayoutTransferSrcOptimal, core1_0.AccessTransferRead},
		{khr_swapchain.ImageLayoutPresentSrc, core1_0.AccessMemoryRead},
		{core1_0.ImageLayoutGeneral, 0},
		{core1_0.ImageLayoutUndefined, 0},
	}

	oldLayouts := []core1_0.ImageLayout{
		core1_0.ImageLayoutUndefined,
		core1_0.ImageLayoutGeneral,
		core1_0.ImageLayoutTransferDstOptimal,
		khr_swapchain.ImageLayoutPresentSrc,
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.layout), func(t *testing.T) {
			assert.Equal(t, tc.access, DestinationAccess(tc.layout))

			for _, old := range oldLayouts {
				recorder := &fakeBarrierRecorder{}
				err := TransitionImageLayout(recorder, core1_0.CommandBuffer{}, core1_0.Image{},
					core1_0.ImageAspectColor, old, tc.layout, 0,
					core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer)
				require.NoError(t, err)
				require.Len(t, recorder.recorded, 1)
				assert.Equal(t, tc.access, recorder.recorded[0].barriers[0].DstAccessMask)
			}
		})
	}
}

func TestTransitionImageLayout_Barrier(t *testing.T) {
	recorder := &fakeBarrierRecorder{}

	err := TransitionImageLayout(recorder, core1_0.CommandBuffer{}, core1_0.Image{},
		core1_0.ImageAspectDepth|core1_0.ImageAspectStencil,
		core1_0.ImageLayoutUndefined, core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		core1_0.AccessHostWrite,
		core1_0.PipelineStageHost, core1_0.PipelineStageEarlyFragmentTests)
	require.NoError(t, err)

	require.Len(t, recorder.recorded, 1)
	rec := recorder.recorded[0]
	assert.Equal(t, core1_0.PipelineStageHost, rec.srcStage)
	assert.Equal(t, core1_0.PipelineStageEarlyFragmentTests, rec.dstStage)

	require.Len(t, rec.barriers, 1)
	barrier := rec.barriers[0]
	assert.Equal(t, core1_0.AccessHostWrite, barrier.SrcAccessMask)
	assert.Equal(t, core1_0.ImageLayoutUndefined, barrier.OldLayout)
	assert.Equal(t, core1_0.ImageLayoutDepthStencilAttachmentOptimal, barrier.NewLayout)
	assert.Equal(t, -1, barrier.SrcQueueFamilyIndex)
	assert.Equal(t, -1, barrier.DstQueueFamilyIndex)
	assert.Equal(t, core1_0.ImageSubresourceRange{
		AspectMask:     core1_0.ImageAspectDepth | core1_0.ImageAspectStencil,
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}, barrier.SubresourceRange)
}

func TestImageTransition_TracksLayout(t *testing.T) {
	recorder := &fakeBarrierRecorder{}
	image := &Image{Aspect: core1_0.ImageAspectColor, layout: core1_0.ImageLayoutUndefined}

	require.NoError(t, image.Transition(recorder, core1_0.CommandBuffer{},
		core1_0.ImageLayoutTransferDstOptimal, 0,
		core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer))
	require.NoError(t, image.Transition(recorder, core1_0.CommandBuffer{},
		core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.AccessTransferWrite,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader))

	require.Len(t, recorder.recorded, 2)
	second := recorder.recorded[1].barriers[0]
	assert.Equal(t, core1_0.ImageLayoutTransferDstOptimal, second.OldLayout)
	assert.Equal(t, core1_0.ImageLayoutShaderReadOnlyOptimal, second.NewLayout)
	assert.Equal(t, core1_0.ImageLayoutShaderReadOnlyOptimal, image.Layout())
	assert.Equal(t, core1_0.ImageLayoutShaderReadOnlyOptimal, image.Descriptor.ImageLayout)

	recorder.err = errFake
	err := image.Transition(recorder, core1_0.CommandBuffer{},
		core1_0.ImageLayoutTransferSrcOptimal, 0,
		core1_0.PipelineStageFragmentShader, core1_0.PipelineStageTransfer)
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, core1_0.ImageLayoutShaderReadOnlyOptimal, image.Layout())
}
