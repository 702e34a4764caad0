package utils

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

var errFake = errors.New("fake driver failure")

type fakeCapabilitySource struct {
	extensions    []string
	extensionsErr error
	families      []QueueFamily
	presents      map[int]bool
	presentErr    error
	presentQuery  []int
}

func (f *fakeCapabilitySource) DeviceExtensions(core1_0.PhysicalDevice) ([]string, common.VkResult, error) {
	if f.extensionsErr != nil {
		return nil, core1_0.VKErrorOutOfHostMemory, f.extensionsErr
	}
	return f.extensions, core1_0.VKSuccess, nil
}

func (f *fakeCapabilitySource) QueueFamilies(core1_0.PhysicalDevice) []QueueFamily {
	return f.families
}

func (f *fakeCapabilitySource) SurfaceSupport(_ core1_0.PhysicalDevice, _ khr_surface.Surface, family int) (bool, common.VkResult, error) {
	f.presentQuery = append(f.presentQuery, family)
	if f.presentErr != nil {
		return false, core1_0.VKErrorUnknown, f.presentErr
	}
	return f.presents[family], core1_0.VKSuccess, nil
}

// fakeResourceDriver records every call by name. Mapped memory is backed by
// Go byte slices so tests can read back what was written.
type fakeResourceDriver struct {
	calls []string
	// failOn makes the named call return errFake.
	failOn string

	bufferReqs MemoryRequirements
	imageReqs  MemoryRequirements

	allocations []core1_0.MemoryAllocateInfo
	mapped      [][]byte
	buffers     []core1_0.BufferCreateInfo
	images      []core1_0.ImageCreateInfo
	views       []core1_0.ImageViewCreateInfo
	samplers    []core1_0.SamplerCreateInfo

	live int
}

func (f *fakeResourceDriver) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errFake
	}
	return nil
}

func (f *fakeResourceDriver) create(name string) (common.VkResult, error) {
	if err := f.record(name); err != nil {
		return core1_0.VKErrorOutOfDeviceMemory, err
	}
	f.live++
	return core1_0.VKSuccess, nil
}

func (f *fakeResourceDriver) destroy(name string) {
	f.calls = append(f.calls, name)
	f.live--
}

func (f *fakeResourceDriver) CreateBuffer(info core1_0.BufferCreateInfo) (core1_0.Buffer, common.VkResult, error) {
	f.buffers = append(f.buffers, info)
	res, err := f.create("CreateBuffer")
	return core1_0.Buffer{}, res, err
}

func (f *fakeResourceDriver) DestroyBuffer(core1_0.Buffer) { f.destroy("DestroyBuffer") }

func (f *fakeResourceDriver) BufferMemoryRequirements(core1_0.Buffer) MemoryRequirements {
	f.calls = append(f.calls, "BufferMemoryRequirements")
	return f.bufferReqs
}

func (f *fakeResourceDriver) CreateImage(info core1_0.ImageCreateInfo) (core1_0.Image, common.VkResult, error) {
	f.images = append(f.images, info)
	res, err := f.create("CreateImage")
	return core1_0.Image{}, res, err
}

func (f *fakeResourceDriver) DestroyImage(core1_0.Image) { f.destroy("DestroyImage") }

func (f *fakeResourceDriver) ImageMemoryRequirements(core1_0.Image) MemoryRequirements {
	f.calls = append(f.calls, "ImageMemoryRequirements")
	return f.imageReqs
}

func (f *fakeResourceDriver) CreateImageView(info core1_0.ImageViewCreateInfo) (core1_0.ImageView, common.VkResult, error) {
	f.views = append(f.views, info)
	res, err := f.create("CreateImageView")
	return core1_0.ImageView{}, res, err
}

func (f *fakeResourceDriver) DestroyImageView(core1_0.ImageView) { f.destroy("DestroyImageView") }

func (f *fakeResourceDriver) CreateSampler(info core1_0.SamplerCreateInfo) (core1_0.Sampler, common.VkResult, error) {
	f.samplers = append(f.samplers, info)
	res, err := f.create("CreateSampler")
	return core1_0.Sampler{}, res, err
}

func (f *fakeResourceDriver) DestroySampler(core1_0.Sampler) { f.destroy("DestroySampler") }

func (f *fakeResourceDriver) AllocateMemory(info core1_0.MemoryAllocateInfo) (core1_0.DeviceMemory, common.VkResult, error) {
	f.allocations = append(f.allocations, info)
	res, err := f.create("AllocateMemory")
	return core1_0.DeviceMemory{}, res, err
}

func (f *fakeResourceDriver) FreeMemory(core1_0.DeviceMemory) { f.destroy("FreeMemory") }

func (f *fakeResourceDriver) BindBufferMemory(core1_0.Buffer, core1_0.DeviceMemory, int) (common.VkResult, error) {
	if err := f.record("BindBufferMemory"); err != nil {
		return core1_0.VKErrorOutOfDeviceMemory, err
	}
	return core1_0.VKSuccess, nil
}

func (f *fakeResourceDriver) BindImageMemory(core1_0.Image, core1_0.DeviceMemory, int) (common.VkResult, error) {
	if err := f.record("BindImageMemory"); err != nil {
		return core1_0.VKErrorOutOfDeviceMemory, err
	}
	return core1_0.VKSuccess, nil
}

func (f *fakeResourceDriver) MapMemory(_ core1_0.DeviceMemory, offset, size int) (unsafe.Pointer, common.VkResult, error) {
	if err := f.record("MapMemory"); err != nil {
		return nil, core1_0.VKErrorMemoryMapFailed, err
	}
	backing := make([]byte, offset+size)
	f.mapped = append(f.mapped, backing)
	return unsafe.Pointer(&backing[offset]), core1_0.VKSuccess, nil
}

func (f *fakeResourceDriver) UnmapMemory(core1_0.DeviceMemory) {
	f.calls = append(f.calls, "UnmapMemory")
}

type fakeShaderDriver struct {
	created   [][]uint32
	destroyed int
	// failAt makes the n-th CreateShaderModule call (0-based) fail.
	failAt int
}

func newFakeShaderDriver() *fakeShaderDriver {
	return &fakeShaderDriver{failAt: -1}
}

func (f *fakeShaderDriver) CreateShaderModule(info core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error) {
	if len(f.created) == f.failAt {
		return core1_0.ShaderModule{}, core1_0.VKErrorOutOfDeviceMemory, errFake
	}
	f.created = append(f.created, info.Code)
	return core1_0.ShaderModule{}, core1_0.VKSuccess, nil
}

func (f *fakeShaderDriver) DestroyShaderModule(core1_0.ShaderModule) {
	f.destroyed++
}

type recordedBarrier struct {
	srcStage, dstStage core1_0.PipelineStageFlags
	barriers           []core1_0.ImageMemoryBarrier
}

type fakeBarrierRecorder struct {
	recorded []recordedBarrier
	err      error
}

func (f *fakeBarrierRecorder) CmdPipelineBarrier(_ core1_0.CommandBuffer, srcStage, dstStage core1_0.PipelineStageFlags, imageBarriers []core1_0.ImageMemoryBarrier) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, recordedBarrier{srcStage: srcStage, dstStage: dstStage, barriers: imageBarriers})
	return nil
}

type fakeCommandDriver struct {
	calls   []string
	failOn  string
	submits []core1_0.SubmitInfo
	fenced  bool
	timeout time.Duration
	waitAll bool
}

func (f *fakeCommandDriver) step(name string) (common.VkResult, error) {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return core1_0.VKErrorDeviceLost, errFake
	}
	return core1_0.VKSuccess, nil
}

func (f *fakeCommandDriver) EndCommandBuffer(core1_0.CommandBuffer) (common.VkResult, error) {
	return f.step("EndCommandBuffer")
}

func (f *fakeCommandDriver) ResetFences(...core1_0.Fence) (common.VkResult, error) {
	return f.step("ResetFences")
}

func (f *fakeCommandDriver) QueueSubmit(_ core1_0.Queue, fence *core1_0.Fence, submits ...core1_0.SubmitInfo) (common.VkResult, error) {
	f.fenced = fence != nil
	f.submits = append(f.submits, submits...)
	return f.step("QueueSubmit")
}

func (f *fakeCommandDriver) WaitForFences(waitForAll bool, timeout time.Duration, _ ...core1_0.Fence) (common.VkResult, error) {
	f.waitAll = waitForAll
	f.timeout = timeout
	return f.step("WaitForFences")
}
