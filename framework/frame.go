package framework

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Frame holds what is needed to record and present into one swapchain image.
// There is one Frame per swapchain image.
//
// ImageAvailable and InFlight are used by the frame whose turn it is to
// acquire, which is not necessarily the frame of the image it gets.
type Frame struct {
	Index          int
	Image          core1_0.Image
	View           core1_0.ImageView
	Framebuffer    core1_0.Framebuffer
	CommandBuffer  core1_0.CommandBuffer
	ImageAvailable core1_0.Semaphore
	RenderFinished core1_0.Semaphore
	InFlight       core1_0.Fence
	Extent         core1_0.Extent2D
}

// nextFrame returns the frame that acquires after current, cycling through
// count frames. A current index left over from a larger swapchain restarts at 0.
func nextFrame(current, count int) int {
	if count <= 0 || current+1 >= count {
		return 0
	}
	return current + 1
}

// createFrames builds one Frame per swapchain image. Fences start signaled so
// the first wait on each returns at once.
func (a *Application) createFrames() error {
	images := a.Swapchain.Images

	buffers, _, err := a.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        a.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(images),
	})
	if err != nil {
		return err
	}

	frames := make([]*Frame, 0, len(images))
	for i, image := range images {
		frame := &Frame{
			Index:         i,
			Image:         image,
			View:          a.Swapchain.Views[i],
			CommandBuffer: buffers[i],
			Extent:        a.Swapchain.Extent,
		}
		// Appended first so destroyFrames releases partial frames on failure.
		frames = append(frames, frame)
		a.Frames = frames

		frame.Framebuffer, _, err = a.DeviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  a.RenderPass,
			Layers:      1,
			Attachments: []core1_0.ImageView{frame.View},
			Width:       frame.Extent.Width,
			Height:      frame.Extent.Height,
		})
		if err != nil {
			return err
		}

		frame.ImageAvailable, _, err = a.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		frame.RenderFinished, _, err = a.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		frame.InFlight, _, err = a.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
	}

	a.imagesInFlight = make([]core1_0.Fence, len(images))
	a.currentFrame = 0
	return nil
}

// destroyFrames releases every frame in reverse creation order.
func (a *Application) destroyFrames() {
	if a.DeviceDriver == nil {
		return
	}

	var buffers []core1_0.CommandBuffer
	for i := len(a.Frames) - 1; i >= 0; i-- {
		frame := a.Frames[i]
		if frame.InFlight.Initialized() {
			a.DeviceDriver.DestroyFence(frame.InFlight, nil)
		}
		if frame.RenderFinished.Initialized() {
			a.DeviceDriver.DestroySemaphore(frame.RenderFinished, nil)
		}
		if frame.ImageAvailable.Initialized() {
			a.DeviceDriver.DestroySemaphore(frame.ImageAvailable, nil)
		}
		if frame.Framebuffer.Initialized() {
			a.DeviceDriver.DestroyFramebuffer(frame.Framebuffer, nil)
		}
		buffers = append(buffers, frame.CommandBuffer)
	}

	if len(buffers) > 0 {
		a.DeviceDriver.FreeCommandBuffers(buffers...)
	}
	a.Frames = nil
	a.imagesInFlight = nil
	a.currentFrame = 0
}
