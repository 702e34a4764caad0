package utils

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/exp/slog"
)

// Factory creates buffers and images with dedicated, bound memory. Memory
// requested as host-visible is mapped once at creation and stays mapped until
// the resource is destroyed; coherent memory is assumed, so writes through the
// mapping are never flushed explicitly.
//
// The factory keeps the ID of every resource it created that has not been
// destroyed yet; Live reports them.
type Factory struct {
	Driver      ResourceDriver
	MemoryTypes MemoryTypes
	Logger      *slog.Logger

	mu   sync.Mutex
	live map[uuid.UUID]string
}

func NewFactory(driver ResourceDriver, memoryTypes MemoryTypes, logger *slog.Logger) *Factory {
	return &Factory{Driver: driver, MemoryTypes: memoryTypes, Logger: logger}
}

func (f *Factory) track(id uuid.UUID, kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.live == nil {
		f.live = make(map[uuid.UUID]string)
	}
	f.live[id] = kind
}

func (f *Factory) release(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
}

// LiveResource names a buffer or image that was created and not yet destroyed.
type LiveResource struct {
	ID   uuid.UUID
	Kind string
}

// Live returns the resources created by f that are still alive, ordered by ID.
func (f *Factory) Live() []LiveResource {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := make([]LiveResource, 0, len(f.live))
	for id, kind := range f.live {
		live = append(live, LiveResource{ID: id, Kind: kind})
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].ID.String() < live[j].ID.String()
	})
	return live
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

type Buffer struct {
	ID     uuid.UUID
	Handle core1_0.Buffer
	Memory core1_0.DeviceMemory
	// Mapped is non-nil iff the buffer was created host-visible.
	Mapped         unsafe.Pointer
	Size           int
	AllocationSize int
	Descriptor     core1_0.DescriptorBufferInfo

	factory *Factory
}

func (f *Factory) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	if size <= 0 {
		return nil, newError(ResourceCreationError, "create buffer", 0, errors.Newf("invalid size %d", size))
	}

	handle, res, err := f.Driver.CreateBuffer(core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, newError(ResourceCreationError, "create buffer", res, err)
	}

	reqs := f.Driver.BufferMemoryRequirements(handle)
	memory, typeIndex, err := f.allocate(reqs, properties)
	if err != nil {
		f.Driver.DestroyBuffer(handle)
		return nil, err
	}

	res, err = f.Driver.BindBufferMemory(handle, memory, 0)
	if err != nil {
		f.Driver.DestroyBuffer(handle)
		f.Driver.FreeMemory(memory)
		return nil, newError(ResourceCreationError, "bind buffer memory", res, err)
	}

	mapped, err := f.mapIfHostVisible(memory, reqs.Size, properties)
	if err != nil {
		f.Driver.DestroyBuffer(handle)
		f.Driver.FreeMemory(memory)
		return nil, err
	}

	buffer := &Buffer{
		ID:             uuid.New(),
		Handle:         handle,
		Memory:         memory,
		Mapped:         mapped,
		Size:           size,
		AllocationSize: reqs.Size,
		Descriptor: core1_0.DescriptorBufferInfo{
			Buffer: handle,
			Offset: 0,
			Range:  size,
		},
		factory: f,
	}
	f.track(buffer.ID, "buffer")

	f.logger().Debug("created buffer",
		"id", buffer.ID,
		"size", size,
		"allocation", reqs.Size,
		"memoryType", typeIndex,
		"mapped", mapped != nil)
	return buffer, nil
}

func (b *Buffer) HostVisible() bool {
	return b.Mapped != nil
}

// Bytes exposes the persistent mapping. It is nil for device-local buffers.
func (b *Buffer) Bytes() []byte {
	if b.Mapped == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.Mapped), b.Size)
}

// Write encodes data with common.ByteOrder at offset through the mapping.
func (b *Buffer) Write(offset int, data any) error {
	return writeMapped(b.Bytes(), offset, data)
}

func (b *Buffer) Destroy(driver ResourceDriver) {
	if b.Mapped != nil {
		driver.UnmapMemory(b.Memory)
		b.Mapped = nil
	}
	driver.DestroyBuffer(b.Handle)
	driver.FreeMemory(b.Memory)
	b.Handle = core1_0.Buffer{}
	b.Memory = core1_0.DeviceMemory{}

	if b.factory != nil {
		b.factory.release(b.ID)
	}
}

// ImageOptions describes a single-level, single-layer 2D image.
type ImageOptions struct {
	Width, Height    int
	Format           core1_0.Format
	Tiling           core1_0.ImageTiling
	Usage            core1_0.ImageUsageFlags
	InitialLayout    core1_0.ImageLayout
	MemoryProperties core1_0.MemoryPropertyFlags

	// Aspect selects the view aspect; no view is created when it is zero.
	Aspect core1_0.ImageAspectFlags
	// Sampler, when set, creates a sampler alongside the image.
	Sampler *core1_0.SamplerCreateInfo
}

type Image struct {
	ID      uuid.UUID
	Handle  core1_0.Image
	View    core1_0.ImageView
	Sampler core1_0.Sampler
	Memory  core1_0.DeviceMemory
	Mapped  unsafe.Pointer
	Size    int
	Format  core1_0.Format
	Extent  core1_0.Extent2D
	Aspect  core1_0.ImageAspectFlags

	Descriptor core1_0.DescriptorImageInfo

	// layout is the layout the image was last transitioned to. Only
	// Transition changes it.
	layout core1_0.ImageLayout

	hasView, hasSampler bool
	factory             *Factory
}

// Layout returns the layout the image was created in or last transitioned to.
func (i *Image) Layout() core1_0.ImageLayout {
	return i.layout
}

func (f *Factory) CreateImage(o ImageOptions) (*Image, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, newError(ResourceCreationError, "create image", 0,
			errors.Newf("invalid extent %dx%d", o.Width, o.Height))
	}

	handle, res, err := f.Driver.CreateImage(core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  o.Width,
			Height: o.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        o.Format,
		Tiling:        o.Tiling,
		InitialLayout: o.InitialLayout,
		Usage:         o.Usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, newError(ResourceCreationError, "create image", res, err)
	}

	img := &Image{
		ID:     uuid.New(),
		Handle: handle,
		Format: o.Format,
		Extent: core1_0.Extent2D{Width: o.Width, Height: o.Height},
		Aspect: o.Aspect,
		layout: o.InitialLayout,
	}

	reqs := f.Driver.ImageMemoryRequirements(handle)
	memory, typeIndex, err := f.allocate(reqs, o.MemoryProperties)
	if err != nil {
		f.Driver.DestroyImage(handle)
		return nil, err
	}
	img.Memory = memory
	img.Size = reqs.Size

	res, err = f.Driver.BindImageMemory(handle, memory, 0)
	if err != nil {
		img.Destroy(f.Driver)
		return nil, newError(ResourceCreationError, "bind image memory", res, err)
	}

	img.Mapped, err = f.mapIfHostVisible(memory, reqs.Size, o.MemoryProperties)
	if err != nil {
		img.Destroy(f.Driver)
		return nil, err
	}

	if o.Aspect != 0 {
		img.View, res, err = f.Driver.CreateImageView(core1_0.ImageViewCreateInfo{
			Image:    handle,
			ViewType: core1_0.ImageViewType2D,
			Format:   o.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     o.Aspect,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			img.Destroy(f.Driver)
			return nil, newError(ResourceCreationError, "create image view", res, err)
		}
		img.hasView = true
	}

	if o.Sampler != nil {
		img.Sampler, res, err = f.Driver.CreateSampler(*o.Sampler)
		if err != nil {
			img.Destroy(f.Driver)
			return nil, newError(ResourceCreationError, "create sampler", res, err)
		}
		img.hasSampler = true
	}

	img.Descriptor = core1_0.DescriptorImageInfo{
		Sampler:     img.Sampler,
		ImageView:   img.View,
		ImageLayout: img.layout,
	}
	img.factory = f
	f.track(img.ID, "image")

	f.logger().Debug("created image",
		"id", img.ID,
		"width", o.Width,
		"height", o.Height,
		"format", o.Format,
		"allocation", reqs.Size,
		"memoryType", typeIndex,
		"mapped", img.Mapped != nil)
	return img, nil
}

func (i *Image) HostVisible() bool {
	return i.Mapped != nil
}

func (i *Image) Bytes() []byte {
	if i.Mapped == nil {
		return nil
	}
	return unsafe.Slice((*byte)(i.Mapped), i.Size)
}

func (i *Image) Write(offset int, data any) error {
	return writeMapped(i.Bytes(), offset, data)
}

// Destroy releases everything the image owns. Parts that were never created
// are skipped, so it is safe on a partially built image.
func (i *Image) Destroy(driver ResourceDriver) {
	if i.hasSampler {
		driver.DestroySampler(i.Sampler)
		i.Sampler = core1_0.Sampler{}
		i.hasSampler = false
	}
	if i.hasView {
		driver.DestroyImageView(i.View)
		i.View = core1_0.ImageView{}
		i.hasView = false
	}
	if i.Mapped != nil {
		driver.UnmapMemory(i.Memory)
		i.Mapped = nil
	}
	driver.DestroyImage(i.Handle)
	driver.FreeMemory(i.Memory)
	i.Handle = core1_0.Image{}
	i.Memory = core1_0.DeviceMemory{}

	if i.factory != nil {
		i.factory.release(i.ID)
	}
}

func (f *Factory) allocate(reqs MemoryRequirements, properties core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, int, error) {
	typeIndex, err := f.MemoryTypes.Find(reqs.MemoryTypeBits, properties)
	if err != nil {
		return core1_0.DeviceMemory{}, 0, err
	}

	memory, res, err := f.Driver.AllocateMemory(core1_0.MemoryAllocateInfo{
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		return core1_0.DeviceMemory{}, 0, newError(ResourceCreationError, "allocate memory", res, err)
	}
	return memory, typeIndex, nil
}

func (f *Factory) mapIfHostVisible(memory core1_0.DeviceMemory, size int, properties core1_0.MemoryPropertyFlags) (unsafe.Pointer, error) {
	if (properties & core1_0.MemoryPropertyHostVisible) == 0 {
		return nil, nil
	}

	ptr, res, err := f.Driver.MapMemory(memory, 0, size)
	if err != nil {
		return nil, newError(ResourceCreationError, "map memory", res, err)
	}
	if ptr == nil {
		return nil, newError(ResourceCreationError, "map memory", res, errors.New("driver returned a nil mapping"))
	}
	return ptr, nil
}

func writeMapped(dst []byte, offset int, data any) error {
	if dst == nil {
		return errors.New("resource is not host-visible")
	}

	size := binary.Size(data)
	if size < 0 {
		return errors.Newf("cannot encode %T", data)
	}
	if offset < 0 || offset+size > len(dst) {
		return errors.Newf("write of %d bytes at offset %d overflows %d byte resource", size, offset, len(dst))
	}

	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrap(err, "encode data")
	}

	copy(dst[offset:], buf.Bytes())
	return nil
}
