package framework

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type Swapchain struct {
	Handle      khr_swapchain.Swapchain
	Format      core1_0.Format
	ColorSpace  khr_surface.ColorSpace
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D
	Images      []core1_0.Image
	Views       []core1_0.ImageView
}

type surfaceSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func (a *Application) querySurfaceSupport(device core1_0.PhysicalDevice) (surfaceSupport, error) {
	var details surfaceSupport
	var err error

	details.Capabilities, _, err = a.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(a.surface, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = a.surfaceExtension.GetPhysicalDeviceSurfaceFormats(a.surface, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = a.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(a.surface, device)
	return details, err
}

// createSwapchain builds a new swapchain, retiring the current one if there is
// one. Both images and views of the new swapchain are ready on return.
func (a *Application) createSwapchain() error {
	if a.swapchainExtension == nil {
		a.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(a.DeviceDriver)
	}

	support, err := a.querySurfaceSupport(a.Params.PhysicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes, a.Config.VSync)
	w, h := a.window.VulkanGetDrawableSize()
	extent := chooseExtent(support.Capabilities, int(w), int(h))

	usage := core1_0.ImageUsageColorAttachment
	if a.Config.SaveImages {
		usage |= core1_0.ImageUsageTransferSrc
	}

	info := khr_swapchain.SwapchainCreateInfo{
		Surface: a.surface,

		MinImageCount:    imageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,

		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	}

	old := a.Swapchain
	if old != nil {
		info.OldSwapchain = old.Handle
	}

	handle, _, err := a.swapchainExtension.CreateSwapchain(nil, info)
	if old != nil {
		a.destroySwapchain(old)
		a.Swapchain = nil
	}
	if err != nil {
		return err
	}

	swapchain := &Swapchain{
		Handle:      handle,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		PresentMode: presentMode,
		Extent:      extent,
	}
	a.Swapchain = swapchain

	swapchain.Images, _, err = a.swapchainExtension.GetSwapchainImages(handle)
	if err != nil {
		return err
	}

	for _, image := range swapchain.Images {
		view, _, err := a.DeviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   swapchain.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	return nil
}

func (a *Application) destroySwapchain(swapchain *Swapchain) {
	for _, view := range swapchain.Views {
		a.DeviceDriver.DestroyImageView(view, nil)
	}
	swapchain.Views = nil

	if swapchain.Handle.Initialized() {
		a.swapchainExtension.DestroySwapchain(swapchain.Handle, nil)
		swapchain.Handle = khr_swapchain.Swapchain{}
	}
}

func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// choosePresentMode returns FIFO when vsync is requested; otherwise it prefers
// mailbox, then immediate.
func choosePresentMode(availablePresentModes []khr_surface.PresentMode, vsync bool) khr_surface.PresentMode {
	if vsync {
		return khr_surface.PresentModeFIFO
	}

	for _, preferred := range []khr_surface.PresentMode{khr_surface.PresentModeMailbox, khr_surface.PresentModeImmediate} {
		for _, presentMode := range availablePresentModes {
			if presentMode == preferred {
				return presentMode
			}
		}
	}

	return khr_surface.PresentModeFIFO
}

func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

func imageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < count {
		count = capabilities.MaxImageCount
	}
	return count
}
