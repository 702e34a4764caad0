package framework

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

func (a *Application) createUploadObjects() error {
	buffers, _, err := a.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        a.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return err
	}
	a.uploadBuffer = buffers[0]

	a.uploadFence, _, err = a.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{})
	return err
}

func (a *Application) destroyUploadObjects() {
	if a.DeviceDriver == nil {
		return
	}

	if a.uploadFence.Initialized() {
		a.DeviceDriver.DestroyFence(a.uploadFence, nil)
		a.uploadFence = core1_0.Fence{}
	}
	if a.uploadBuffer.Initialized() {
		a.DeviceDriver.FreeCommandBuffers(a.uploadBuffer)
		a.uploadBuffer = core1_0.CommandBuffer{}
	}
}

// BeginUpload starts recording the one-shot command buffer used for
// transfers outside the frame loop. Finish it with EndUpload.
func (a *Application) BeginUpload() (core1_0.CommandBuffer, error) {
	if a.uploading {
		return core1_0.CommandBuffer{}, errors.New("upload already in progress")
	}

	_, err := a.DeviceDriver.BeginCommandBuffer(a.uploadBuffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "begin upload")
	}

	a.uploading = true
	return a.uploadBuffer, nil
}

// EndUpload submits what was recorded since BeginUpload and waits for it.
func (a *Application) EndUpload() error {
	if !a.uploading {
		return errors.New("no upload in progress")
	}
	a.uploading = false

	return utils.FlushCommandBuffer(a.Device, a.Params.Queue.Handle, a.uploadBuffer, a.uploadFence)
}

// abortUpload ends a recording that will not be submitted.
func (a *Application) abortUpload() {
	if !a.uploading {
		return
	}
	a.uploading = false

	_, err := a.DeviceDriver.EndCommandBuffer(a.uploadBuffer)
	if err != nil {
		a.Logger.Warn("failed to end aborted upload", "error", err)
	}
}
