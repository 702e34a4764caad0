package utils

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

var testMemoryTypes = MemoryTypes{
	core1_0.MemoryPropertyDeviceLocal,
	core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
}

const hostMemory = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

func newTestFactory() (*Factory, *fakeResourceDriver) {
	driver := &fakeResourceDriver{
		bufferReqs: MemoryRequirements{Size: 256, Alignment: 64, MemoryTypeBits: 0b11},
		imageReqs:  MemoryRequirements{Size: 4096, Alignment: 256, MemoryTypeBits: 0b11},
	}
	return NewFactory(driver, testMemoryTypes, nil), driver
}

func TestCreateBuffer_HostVisibleRoundTrip(t *testing.T) {
	factory, driver := newTestFactory()

	buffer, err := factory.CreateBuffer(200, core1_0.BufferUsageVertexBuffer, hostMemory)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CreateBuffer", "BufferMemoryRequirements", "AllocateMemory", "BindBufferMemory", "MapMemory",
	}, driver.calls)

	require.Len(t, driver.buffers, 1)
	assert.Equal(t, 200, driver.buffers[0].Size)
	assert.Equal(t, core1_0.BufferUsageVertexBuffer, driver.buffers[0].Usage)
	assert.Equal(t, core1_0.SharingModeExclusive, driver.buffers[0].SharingMode)

	require.Len(t, driver.allocations, 1)
	assert.Equal(t, 256, driver.allocations[0].AllocationSize)
	assert.Equal(t, 1, driver.allocations[0].MemoryTypeIndex)

	assert.True(t, buffer.HostVisible())
	assert.Equal(t, 200, buffer.Size)
	assert.Equal(t, 256, buffer.AllocationSize)
	assert.Equal(t, 0, buffer.Descriptor.Offset)
	assert.Equal(t, 200, buffer.Descriptor.Range)

	vertices := []float32{0.0, -0.5, 0.5, 0.5, -0.5, 0.5}
	require.NoError(t, buffer.Write(16, vertices))

	var expected []byte
	for _, v := range vertices {
		b := make([]byte, 4)
		common.ByteOrder.PutUint32(b, math.Float32bits(v))
		expected = append(expected, b...)
	}
	assert.Equal(t, expected, buffer.Bytes()[16:16+len(expected)])
	assert.Equal(t, expected, driver.mapped[0][16:16+len(expected)])
}

func TestCreateBuffer_DeviceLocalIsNotMapped(t *testing.T) {
	factory, driver := newTestFactory()

	buffer, err := factory.CreateBuffer(64, core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)

	assert.NotContains(t, driver.calls, "MapMemory")
	assert.Equal(t, 0, driver.allocations[0].MemoryTypeIndex)
	assert.False(t, buffer.HostVisible())
	assert.Nil(t, buffer.Bytes())
	assert.Error(t, buffer.Write(0, uint32(1)))
}

func TestCreateBuffer_InvalidSize(t *testing.T) {
	factory, driver := newTestFactory()

	_, err := factory.CreateBuffer(0, core1_0.BufferUsageUniformBuffer, hostMemory)
	assert.True(t, errors.Is(err, ErrResourceCreation))
	assert.Empty(t, driver.calls)
}

func TestCreateBuffer_FailuresReleasePartialObjects(t *testing.T) {
	testCases := []struct {
		failOn string
		result common.VkResult
	}{
		{"CreateBuffer", core1_0.VKErrorOutOfDeviceMemory},
		{"AllocateMemory", core1_0.VKErrorOutOfDeviceMemory},
		{"BindBufferMemory", core1_0.VKErrorOutOfDeviceMemory},
		{"MapMemory", core1_0.VKErrorMemoryMapFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.failOn, func(t *testing.T) {
			factory, driver := newTestFactory()
			driver.failOn = tc.failOn

			buffer, err := factory.CreateBuffer(128, core1_0.BufferUsageUniformBuffer, hostMemory)
			require.Error(t, err)
			assert.Nil(t, buffer)
			assert.True(t, errors.Is(err, ErrResourceCreation))
			assert.True(t, errors.Is(err, errFake))

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tc.result, e.Result)
			assert.Zero(t, driver.live)
		})
	}
}

func TestCreateBuffer_NoCompatibleMemory(t *testing.T) {
	factory, driver := newTestFactory()
	driver.bufferReqs.MemoryTypeBits = 0b01

	_, err := factory.CreateBuffer(128, core1_0.BufferUsageUniformBuffer, hostMemory)
	assert.True(t, errors.Is(err, ErrNoCompatibleMemoryType))
	assert.NotContains(t, driver.calls, "AllocateMemory")
	assert.Zero(t, driver.live)
}

func TestBufferDestroy(t *testing.T) {
	factory, driver := newTestFactory()

	buffer, err := factory.CreateBuffer(32, core1_0.BufferUsageUniformBuffer, hostMemory)
	require.NoError(t, err)

	driver.calls = nil
	buffer.Destroy(driver)

	assert.Equal(t, []string{"UnmapMemory", "DestroyBuffer", "FreeMemory"}, driver.calls)
	assert.False(t, buffer.HostVisible())
	assert.Zero(t, driver.live)
}

func TestBufferWrite_Bounds(t *testing.T) {
	factory, _ := newTestFactory()

	buffer, err := factory.CreateBuffer(8, core1_0.BufferUsageUniformBuffer, hostMemory)
	require.NoError(t, err)

	assert.NoError(t, buffer.Write(4, uint32(7)))
	assert.Error(t, buffer.Write(6, uint32(7)))
	assert.Error(t, buffer.Write(-1, uint8(1)))
	assert.Error(t, buffer.Write(0, "not fixed size"))
}

func TestCreateImage(t *testing.T) {
	factory, driver := newTestFactory()
	sampler := &core1_0.SamplerCreateInfo{
		MagFilter: core1_0.FilterLinear,
		MinFilter: core1_0.FilterLinear,
	}

	image, err := factory.CreateImage(ImageOptions{
		Width:            64,
		Height:           32,
		Format:           core1_0.FormatR8G8B8A8UnsignedNormalized,
		Tiling:           core1_0.ImageTilingOptimal,
		Usage:            core1_0.ImageUsageTransferDst | core1_0.ImageUsageSampled,
		InitialLayout:    core1_0.ImageLayoutUndefined,
		MemoryProperties: core1_0.MemoryPropertyDeviceLocal,
		Aspect:           core1_0.ImageAspectColor,
		Sampler:          sampler,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CreateImage", "ImageMemoryRequirements", "AllocateMemory", "BindImageMemory",
		"CreateImageView", "CreateSampler",
	}, driver.calls)

	require.Len(t, driver.images, 1)
	assert.Equal(t, 64, driver.images[0].Extent.Width)
	assert.Equal(t, 32, driver.images[0].Extent.Height)
	assert.Equal(t, 1, driver.images[0].Extent.Depth)
	assert.Equal(t, 1, driver.images[0].MipLevels)
	assert.Equal(t, 1, driver.images[0].ArrayLayers)

	require.Len(t, driver.views, 1)
	assert.Equal(t, core1_0.ImageAspectColor, driver.views[0].SubresourceRange.AspectMask)
	assert.Equal(t, 1, driver.views[0].SubresourceRange.LevelCount)

	assert.Equal(t, []core1_0.SamplerCreateInfo{*sampler}, driver.samplers)
	assert.Equal(t, core1_0.ImageLayoutUndefined, image.Layout())
	assert.Equal(t, core1_0.ImageLayoutUndefined, image.Descriptor.ImageLayout)
	assert.False(t, image.HostVisible())
	assert.Equal(t, 4096, image.Size)
}

func TestCreateImage_HostVisibleWithoutView(t *testing.T) {
	factory, driver := newTestFactory()

	image, err := factory.CreateImage(ImageOptions{
		Width:            4,
		Height:           4,
		Format:           core1_0.FormatB8G8R8A8UnsignedNormalized,
		Tiling:           core1_0.ImageTilingLinear,
		Usage:            core1_0.ImageUsageTransferDst,
		InitialLayout:    core1_0.ImageLayoutUndefined,
		MemoryProperties: hostMemory,
	})
	require.NoError(t, err)

	assert.NotContains(t, driver.calls, "CreateImageView")
	assert.NotContains(t, driver.calls, "CreateSampler")
	require.True(t, image.HostVisible())
	assert.Len(t, image.Bytes(), 4096)

	require.NoError(t, image.Write(0, []uint8{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, driver.mapped[0][:4])

	driver.calls = nil
	image.Destroy(driver)
	assert.Equal(t, []string{"UnmapMemory", "DestroyImage", "FreeMemory"}, driver.calls)
	assert.Zero(t, driver.live)
}

func TestCreateImage_FailuresReleasePartialObjects(t *testing.T) {
	for _, failOn := range []string{"CreateImage", "AllocateMemory", "BindImageMemory", "MapMemory", "CreateImageView", "CreateSampler"} {
		t.Run(failOn, func(t *testing.T) {
			factory, driver := newTestFactory()
			driver.failOn = failOn

			image, err := factory.CreateImage(ImageOptions{
				Width:            16,
				Height:           16,
				Format:           core1_0.FormatR8G8B8A8UnsignedNormalized,
				Tiling:           core1_0.ImageTilingLinear,
				Usage:            core1_0.ImageUsageSampled,
				MemoryProperties: hostMemory,
				Aspect:           core1_0.ImageAspectColor,
				Sampler:          &core1_0.SamplerCreateInfo{},
			})
			require.Error(t, err)
			assert.Nil(t, image)
			assert.True(t, errors.Is(err, ErrResourceCreation))
			assert.Zero(t, driver.live)
		})
	}
}

func TestCreateImage_InvalidExtent(t *testing.T) {
	factory, driver := newTestFactory()

	_, err := factory.CreateImage(ImageOptions{Width: 0, Height: 16})
	assert.True(t, errors.Is(err, ErrResourceCreation))
	assert.Empty(t, driver.calls)
}


func TestFactoryLive_TracksUntilDestroy(t *testing.T) {
	factory, driver := newTestFactory()

	buffer, err := factory.CreateBuffer(64, core1_0.BufferUsageUniformBuffer, hostMemory)
	require.NoError(t, err)
	image, err := factory.CreateImage(ImageOptions{
		Width:            4,
		Height:           4,
		Format:           core1_0.FormatR8G8B8A8SRGB,
		MemoryProperties: core1_0.MemoryPropertyDeviceLocal,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []LiveResource{
		{ID: buffer.ID, Kind: "buffer"},
		{ID: image.ID, Kind: "image"},
	}, factory.Live())

	buffer.Destroy(driver)
	assert.Equal(t, []LiveResource{{ID: image.ID, Kind: "image"}}, factory.Live())

	image.Destroy(driver)
	assert.Empty(t, factory.Live())
}

func TestFactoryLive_IgnoresFailedCreation(t *testing.T) {
	factory, driver := newTestFactory()
	driver.failOn = "BindImageMemory"

	_, err := factory.CreateImage(ImageOptions{
		Width:            4,
		Height:           4,
		Format:           core1_0.FormatR8G8B8A8SRGB,
		MemoryProperties: core1_0.MemoryPropertyDeviceLocal,
	})
	require.Error(t, err)
	assert.Empty(t, factory.Live())

	driver.failOn = "MapMemory"
	_, err = factory.CreateBuffer(64, core1_0.BufferUsageUniformBuffer, hostMemory)
	require.Error(t, err)
	assert.Empty(t, factory.Live())
}
