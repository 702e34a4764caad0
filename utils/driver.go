package utils

import (
	"time"
	"unsafe"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// QueueFamily is the part of a queue family's properties the capability
// prober looks at.
type QueueFamily struct {
	Flags core1_0.QueueFlags
	Count int
}

// MemoryRequirements mirrors what the device reports for a buffer or image.
type MemoryRequirements struct {
	Size           int
	Alignment      int
	MemoryTypeBits uint32
}

// CapabilitySource answers the physical-device questions asked by CheckCapabilities.
type CapabilitySource interface {
	DeviceExtensions(physicalDevice core1_0.PhysicalDevice) ([]string, common.VkResult, error)
	QueueFamilies(physicalDevice core1_0.PhysicalDevice) []QueueFamily
	SurfaceSupport(physicalDevice core1_0.PhysicalDevice, surface khr_surface.Surface, family int) (bool, common.VkResult, error)
}

// ResourceDriver is the subset of a logical device used by Factory.
type ResourceDriver interface {
	CreateBuffer(info core1_0.BufferCreateInfo) (core1_0.Buffer, common.VkResult, error)
	DestroyBuffer(buffer core1_0.Buffer)
	BufferMemoryRequirements(buffer core1_0.Buffer) MemoryRequirements

	CreateImage(info core1_0.ImageCreateInfo) (core1_0.Image, common.VkResult, error)
	DestroyImage(image core1_0.Image)
	ImageMemoryRequirements(image core1_0.Image) MemoryRequirements
	CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error)
	DestroyImageView(view core1_0.ImageView)
	CreateSampler(info core1_0.SamplerCreateInfo) (core1_0.Sampler, common.VkResult, error)
	DestroySampler(sampler core1_0.Sampler)

	AllocateMemory(info core1_0.MemoryAllocateInfo) (core1_0.DeviceMemory, common.VkResult, error)
	FreeMemory(memory core1_0.DeviceMemory)
	BindBufferMemory(buffer core1_0.Buffer, memory core1_0.DeviceMemory, offset int) (common.VkResult, error)
	BindImageMemory(image core1_0.Image, memory core1_0.DeviceMemory, offset int) (common.VkResult, error)
	MapMemory(memory core1_0.DeviceMemory, offset, size int) (unsafe.Pointer, common.VkResult, error)
	UnmapMemory(memory core1_0.DeviceMemory)
}

type ShaderDriver interface {
	CreateShaderModule(info core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error)
	DestroyShaderModule(module core1_0.ShaderModule)
}

type BarrierRecorder interface {
	CmdPipelineBarrier(commandBuffer core1_0.CommandBuffer, srcStage, dstStage core1_0.PipelineStageFlags, imageBarriers []core1_0.ImageMemoryBarrier) error
}

type CommandDriver interface {
	EndCommandBuffer(commandBuffer core1_0.CommandBuffer) (common.VkResult, error)
	ResetFences(fences ...core1_0.Fence) (common.VkResult, error)
	QueueSubmit(queue core1_0.Queue, fence *core1_0.Fence, submits ...core1_0.SubmitInfo) (common.VkResult, error)
	WaitForFences(waitForAll bool, timeout time.Duration, fences ...core1_0.Fence) (common.VkResult, error)
}

// InstanceDriver adapts a vkngwrapper instance driver and its surface
// extension to CapabilitySource.
type InstanceDriver struct {
	Instance core1_0.CoreInstanceDriver
	Surface  khr_surface.ExtensionDriver
}

func NewInstanceDriver(instance core1_0.CoreInstanceDriver, surface khr_surface.ExtensionDriver) *InstanceDriver {
	return &InstanceDriver{Instance: instance, Surface: surface}
}

func (d *InstanceDriver) DeviceExtensions(physicalDevice core1_0.PhysicalDevice) ([]string, common.VkResult, error) {
	extensions, res, err := d.Instance.EnumerateDeviceExtensionProperties(physicalDevice)
	if err != nil {
		return nil, res, err
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	return names, res, nil
}

func (d *InstanceDriver) QueueFamilies(physicalDevice core1_0.PhysicalDevice) []QueueFamily {
	var families []QueueFamily
	for _, props := range d.Instance.GetPhysicalDeviceQueueFamilyProperties(physicalDevice) {
		families = append(families, QueueFamily{
			Flags: props.QueueFlags,
			Count: int(props.QueueCount),
		})
	}
	return families
}

func (d *InstanceDriver) SurfaceSupport(physicalDevice core1_0.PhysicalDevice, surface khr_surface.Surface, family int) (bool, common.VkResult, error) {
	return d.Surface.GetPhysicalDeviceSurfaceSupport(surface, physicalDevice, family)
}

// MemoryTypes reads the memory type table of a physical device.
func (d *InstanceDriver) MemoryTypes(physicalDevice core1_0.PhysicalDevice) MemoryTypes {
	props := d.Instance.GetPhysicalDeviceMemoryProperties(physicalDevice)

	types := make(MemoryTypes, 0, len(props.MemoryTypes))
	for _, memoryType := range props.MemoryTypes {
		types = append(types, memoryType.PropertyFlags)
	}
	return types
}

// DeviceDriver adapts a vkngwrapper device driver to the helper interfaces.
// Allocation callbacks are never used.
type DeviceDriver struct {
	Driver core1_0.CoreDeviceDriver
}

func NewDeviceDriver(driver core1_0.CoreDeviceDriver) *DeviceDriver {
	return &DeviceDriver{Driver: driver}
}

func (d *DeviceDriver) CreateBuffer(info core1_0.BufferCreateInfo) (core1_0.Buffer, common.VkResult, error) {
	return d.Driver.CreateBuffer(nil, info)
}

func (d *DeviceDriver) DestroyBuffer(buffer core1_0.Buffer) {
	d.Driver.DestroyBuffer(buffer, nil)
}

func (d *DeviceDriver) BufferMemoryRequirements(buffer core1_0.Buffer) MemoryRequirements {
	reqs := d.Driver.GetBufferMemoryRequirements(buffer)
	return MemoryRequirements{
		Size:           int(reqs.Size),
		Alignment:      int(reqs.Alignment),
		MemoryTypeBits: uint32(reqs.MemoryTypeBits),
	}
}

func (d *DeviceDriver) CreateImage(info core1_0.ImageCreateInfo) (core1_0.Image, common.VkResult, error) {
	return d.Driver.CreateImage(nil, info)
}

func (d *DeviceDriver) DestroyImage(image core1_0.Image) {
	d.Driver.DestroyImage(image, nil)
}

func (d *DeviceDriver) ImageMemoryRequirements(image core1_0.Image) MemoryRequirements {
	reqs := d.Driver.GetImageMemoryRequirements(image)
	return MemoryRequirements{
		Size:           int(reqs.Size),
		Alignment:      int(reqs.Alignment),
		MemoryTypeBits: uint32(reqs.MemoryTypeBits),
	}
}

func (d *DeviceDriver) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error) {
	return d.Driver.CreateImageView(nil, info)
}

func (d *DeviceDriver) DestroyImageView(view core1_0.ImageView) {
	d.Driver.DestroyImageView(view, nil)
}

func (d *DeviceDriver) CreateSampler(info core1_0.SamplerCreateInfo) (core1_0.Sampler, common.VkResult, error) {
	return d.Driver.CreateSampler(nil, info)
}

func (d *DeviceDriver) DestroySampler(sampler core1_0.Sampler) {
	d.Driver.DestroySampler(sampler, nil)
}

func (d *DeviceDriver) AllocateMemory(info core1_0.MemoryAllocateInfo) (core1_0.DeviceMemory, common.VkResult, error) {
	return d.Driver.AllocateMemory(nil, info)
}

func (d *DeviceDriver) FreeMemory(memory core1_0.DeviceMemory) {
	d.Driver.FreeMemory(memory, nil)
}

func (d *DeviceDriver) BindBufferMemory(buffer core1_0.Buffer, memory core1_0.DeviceMemory, offset int) (common.VkResult, error) {
	return d.Driver.BindBufferMemory(buffer, memory, offset)
}

func (d *DeviceDriver) BindImageMemory(image core1_0.Image, memory core1_0.DeviceMemory, offset int) (common.VkResult, error) {
	return d.Driver.BindImageMemory(image, memory, offset)
}

func (d *DeviceDriver) MapMemory(memory core1_0.DeviceMemory, offset, size int) (unsafe.Pointer, common.VkResult, error) {
	return d.Driver.MapMemory(memory, offset, size, 0)
}

func (d *DeviceDriver) UnmapMemory(memory core1_0.DeviceMemory) {
	d.Driver.UnmapMemory(memory)
}

func (d *DeviceDriver) CreateShaderModule(info core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error) {
	return d.Driver.CreateShaderModule(nil, info)
}

func (d *DeviceDriver) DestroyShaderModule(module core1_0.ShaderModule) {
	d.Driver.DestroyShaderModule(module, nil)
}

func (d *DeviceDriver) CmdPipelineBarrier(commandBuffer core1_0.CommandBuffer, srcStage, dstStage core1_0.PipelineStageFlags, imageBarriers []core1_0.ImageMemoryBarrier) error {
	return d.Driver.CmdPipelineBarrier(commandBuffer, srcStage, dstStage, 0, nil, nil, imageBarriers)
}

func (d *DeviceDriver) EndCommandBuffer(commandBuffer core1_0.CommandBuffer) (common.VkResult, error) {
	return d.Driver.EndCommandBuffer(commandBuffer)
}

func (d *DeviceDriver) ResetFences(fences ...core1_0.Fence) (common.VkResult, error) {
	return d.Driver.ResetFences(fences...)
}

func (d *DeviceDriver) QueueSubmit(queue core1_0.Queue, fence *core1_0.Fence, submits ...core1_0.SubmitInfo) (common.VkResult, error) {
	return d.Driver.QueueSubmit(queue, fence, submits...)
}

func (d *DeviceDriver) WaitForFences(waitForAll bool, timeout time.Duration, fences ...core1_0.Fence) (common.VkResult, error) {
	return d.Driver.WaitForFences(waitForAll, timeout, fences...)
}
