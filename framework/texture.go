package framework

import (
	"image"
	"image/draw"
	_ "image/png"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

// LoadTexture decodes an image from the assets, uploads it into a
// device-local RGBA image and leaves it ready for sampling in fragment shaders.
func (a *Application) LoadTexture(name string, sampler core1_0.SamplerCreateInfo) (*utils.Image, error) {
	file, err := a.Assets.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open texture")
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}

	pixels := rgbaPixels(decoded)
	size := pixels.Rect.Size()

	staging, err := a.Factory.CreateBuffer(len(pixels.Pix), core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(a.Device)

	copy(staging.Bytes(), pixels.Pix)

	texture, err := a.Factory.CreateImage(utils.ImageOptions{
		Width:            size.X,
		Height:           size.Y,
		Format:           core1_0.FormatR8G8B8A8SRGB,
		Tiling:           core1_0.ImageTilingOptimal,
		Usage:            core1_0.ImageUsageTransferDst | core1_0.ImageUsageSampled,
		InitialLayout:    core1_0.ImageLayoutUndefined,
		MemoryProperties: core1_0.MemoryPropertyDeviceLocal,
		Aspect:           core1_0.ImageAspectColor,
		Sampler:          &sampler,
	})
	if err != nil {
		return nil, err
	}

	err = a.uploadTexture(staging, texture)
	if err != nil {
		texture.Destroy(a.Device)
		return nil, err
	}

	a.Logger.Debug("texture loaded", "name", name, "id", texture.ID, "width", size.X, "height", size.Y)
	return texture, nil
}

func (a *Application) uploadTexture(staging *utils.Buffer, texture *utils.Image) error {
	cmd, err := a.BeginUpload()
	if err != nil {
		return err
	}

	err = a.recordTextureUpload(cmd, staging, texture)
	if err != nil {
		a.abortUpload()
		return err
	}

	return a.EndUpload()
}

func (a *Application) recordTextureUpload(cmd core1_0.CommandBuffer, staging *utils.Buffer, texture *utils.Image) error {
	err := texture.Transition(a.Device, cmd, core1_0.ImageLayoutTransferDstOptimal, 0,
		core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer)
	if err != nil {
		return err
	}

	err = a.DeviceDriver.CmdCopyBufferToImage(cmd, staging.Handle, texture.Handle, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: texture.Extent.Width, Height: texture.Extent.Height, Depth: 1},
		},
	)
	if err != nil {
		return err
	}

	return texture.Transition(a.Device, cmd, core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.AccessTransferWrite,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader)
}

// rgbaPixels returns img as tightly packed 8-bit RGBA rows starting at (0,0).
func rgbaPixels(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) && rgba.Stride == 4*bounds.Dx() {
		return rgba
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
