package framework

import (
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"golang.org/x/exp/slog"

	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

// Application owns the window and every Vulkan object shared by the samples.
// It is not safe for concurrent use; all calls happen on the thread running Run.
type Application struct {
	Config Config
	Logger *slog.Logger
	// Assets is rooted at Config.AssetsPath.
	Assets fs.FS

	window *sdl.Window

	globalDriver core1_0.GlobalDriver
	// DeviceDriver records commands and creates the objects the helpers in
	// utils do not cover.
	DeviceDriver   core1_0.CoreDeviceDriver
	instanceDriver core1_0.CoreInstanceDriver

	Instance *utils.InstanceDriver
	Device   *utils.DeviceDriver
	Factory  *utils.Factory
	Params   utils.DeviceParams

	validation       bool
	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	swapchainExtension khr_swapchain.ExtensionDriver
	Swapchain          *Swapchain
	RenderPass         core1_0.RenderPass
	Frames             []*Frame

	commandPool core1_0.CommandPool
	// imagesInFlight holds, per swapchain image, the fence of the last
	// submission that rendered into it.
	imagesInFlight []core1_0.Fence
	currentFrame   int
	lastImage      int
	presented      bool

	uploadBuffer core1_0.CommandBuffer
	uploadFence  core1_0.Fence
	uploading    bool
}

func NewApplication(cfg Config, logger *slog.Logger) (*Application, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger, err = NewLogger(cfg, os.Stderr)
		if err != nil {
			return nil, err
		}
	}

	return &Application{
		Config:     cfg,
		Logger:     logger,
		Assets:     os.DirFS(cfg.AssetsPath),
		validation: cfg.Validation,
	}, nil
}

// Run initializes Vulkan, hands control to sample until the window is closed,
// then tears everything down. It must be called from the main OS thread.
func (a *Application) Run(sample Sample) error {
	err := a.initWindow()
	if err != nil {
		return err
	}
	defer a.cleanup()

	err = a.initVulkan()
	if err != nil {
		return err
	}

	return a.runSample(sample, a.mainLoop, a.waitIdle)
}

func (a *Application) waitIdle() error {
	_, err := a.DeviceDriver.DeviceWaitIdle()
	return err
}

// runSample drives sample from OnInit to OnDestroy. Once OnInit has been
// called, OnDestroy runs on every path, after the device is idle.
func (a *Application) runSample(sample Sample, loop func(Sample) error, waitIdle func() error) error {
	err := sample.OnInit(a)
	if err != nil {
		idleErr := waitIdle()
		if idleErr != nil {
			a.Logger.Warn("failed to wait for device idle", "error", idleErr)
		}
		sample.OnDestroy(a)
		return errors.Wrap(err, "initialize sample")
	}

	loopErr := loop(sample)

	err = waitIdle()
	if err != nil && loopErr == nil {
		loopErr = errors.Wrap(err, "wait for device idle")
	}

	if loopErr == nil && a.Config.SaveImages && a.presented {
		loopErr = a.SaveImage(a.Config.Title)
	}

	sample.OnDestroy(a)
	return loopErr
}

func (a *Application) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "initialize sdl")
	}

	window, err := sdl.CreateWindow(a.Config.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(a.Config.Width), int32(a.Config.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	a.window = window

	a.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "load vulkan")
	}

	return nil
}

func (a *Application) initVulkan() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"create instance", a.createInstance},
		{"set up debug messenger", a.setupDebugMessenger},
		{"create surface", a.createSurface},
		{"pick physical device", a.pickPhysicalDevice},
		{"create logical device", a.createLogicalDevice},
		{"create command pool", a.createCommandPool},
		{"create swapchain", a.createSwapchain},
		{"create render pass", a.createRenderPass},
		{"create frames", a.createFrames},
		{"create upload objects", a.createUploadObjects},
	}

	for _, step := range steps {
		err := step.fn()
		if err != nil {
			return errors.Wrap(err, step.name)
		}
	}

	a.Logger.Info("vulkan initialized",
		"family", *a.Params.Queue.FamilyIndex,
		"format", a.Swapchain.Format,
		"width", a.Swapchain.Extent.Width,
		"height", a.Swapchain.Extent.Height,
		"images", len(a.Swapchain.Images))
	return nil
}

func (a *Application) mainLoop(sample Sample) error {
	rendering := true
	last := hrtime.Now()

appLoop:
	for true {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED:
					w, h := a.window.GetSize()
					if w > 0 && h > 0 {
						rendering = true
						err := a.recreateSwapchain(sample)
						if err != nil {
							return err
						}
					} else {
						rendering = false
					}
				}
			}
		}

		now := hrtime.Now()
		dt := (now - last).Seconds()
		last = now

		if !rendering {
			sdl.Delay(10)
			continue
		}

		err := sample.OnUpdate(a, dt)
		if err != nil {
			return errors.Wrap(err, "update sample")
		}

		err = a.drawFrame(sample)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *Application) drawFrame(sample Sample) error {
	acquiring := a.Frames[a.currentFrame]

	_, err := a.DeviceDriver.WaitForFences(true, common.NoTimeout, acquiring.InFlight)
	if err != nil {
		return errors.Wrap(err, "wait for frame fence")
	}

	imageIndex, res, err := a.swapchainExtension.AcquireNextImage(a.Swapchain.Handle, common.NoTimeout, &acquiring.ImageAvailable, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return a.recreateSwapchain(sample)
	} else if err != nil {
		return errors.Wrap(err, "acquire image")
	}

	if a.imagesInFlight[imageIndex].Initialized() {
		_, err := a.DeviceDriver.WaitForFences(true, common.NoTimeout, a.imagesInFlight[imageIndex])
		if err != nil {
			return errors.Wrap(err, "wait for image fence")
		}
	}
	a.imagesInFlight[imageIndex] = acquiring.InFlight

	_, err = a.DeviceDriver.ResetFences(acquiring.InFlight)
	if err != nil {
		return errors.Wrap(err, "reset frame fence")
	}

	frame := a.Frames[imageIndex]
	_, err = a.DeviceDriver.BeginCommandBuffer(frame.CommandBuffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin frame")
	}

	err = sample.OnRender(a, frame)
	if err != nil {
		return errors.Wrap(err, "render sample")
	}

	_, err = a.DeviceDriver.EndCommandBuffer(frame.CommandBuffer)
	if err != nil {
		return errors.Wrap(err, "end frame")
	}

	_, err = a.DeviceDriver.QueueSubmit(a.Params.Queue.Handle, &acquiring.InFlight,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{acquiring.ImageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{frame.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{frame.RenderFinished},
		},
	)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}

	res, err = a.swapchainExtension.QueuePresent(a.Params.Queue.Handle, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{frame.RenderFinished},
		Swapchains:     []khr_swapchain.Swapchain{a.Swapchain.Handle},
		ImageIndices:   []int{imageIndex},
	})
	a.lastImage = imageIndex
	a.presented = true
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return a.recreateSwapchain(sample)
	} else if err != nil {
		return errors.Wrap(err, "present")
	}

	a.currentFrame = nextFrame(a.currentFrame, len(a.Frames))
	return nil
}

func (a *Application) recreateSwapchain(sample Sample) error {
	w, h := a.window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return nil
	}
	if (a.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return nil
	}

	_, err := a.DeviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	oldFormat := a.Swapchain.Format
	a.destroyFrames()

	err = a.createSwapchain()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}

	if a.Swapchain.Format != oldFormat {
		a.DeviceDriver.DestroyRenderPass(a.RenderPass, nil)
		err = a.createRenderPass()
		if err != nil {
			return errors.Wrap(err, "recreate render pass")
		}
	}

	err = a.createFrames()
	if err != nil {
		return errors.Wrap(err, "recreate frames")
	}

	a.presented = false
	a.Logger.Debug("swapchain recreated",
		"width", a.Swapchain.Extent.Width,
		"height", a.Swapchain.Extent.Height)

	if resizer, ok := sample.(Resizer); ok {
		err = resizer.OnResize(a)
		if err != nil {
			return errors.Wrap(err, "resize sample")
		}
	}
	return nil
}

func (a *Application) cleanup() {
	a.destroyUploadObjects()
	a.destroyFrames()

	if a.RenderPass.Initialized() {
		a.DeviceDriver.DestroyRenderPass(a.RenderPass, nil)
		a.RenderPass = core1_0.RenderPass{}
	}

	if a.Swapchain != nil {
		a.destroySwapchain(a.Swapchain)
		a.Swapchain = nil
	}

	if a.commandPool.Initialized() {
		a.DeviceDriver.DestroyCommandPool(a.commandPool, nil)
	}

	if a.Factory != nil {
		for _, leaked := range a.Factory.Live() {
			a.Logger.Warn("resource not destroyed before shutdown", "kind", leaked.Kind, "id", leaked.ID)
		}
	}

	if a.DeviceDriver != nil {
		a.DeviceDriver.DestroyDevice(nil)
	}

	if a.debugMessenger.Initialized() {
		a.debugDriver.DestroyDebugUtilsMessenger(a.debugMessenger, nil)
	}

	if a.surface.Initialized() {
		a.surfaceExtension.DestroySurface(a.surface, nil)
	}

	if a.instanceDriver != nil {
		a.instanceDriver.DestroyInstance(nil)
	}

	if a.window != nil {
		a.window.Destroy()
	}
	sdl.Quit()
}
