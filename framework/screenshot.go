package framework

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

// SaveImage copies the most recently presented swapchain image into host
// memory and writes it to <name>.png in the working directory. The device
// must be idle, and the swapchain must have been built with SaveImages set so
// its images can be copied from.
func (a *Application) SaveImage(name string) error {
	if !a.Config.SaveImages {
		return errors.New("save image: swapchain images are not transfer sources")
	}
	if !a.presented {
		return errors.New("save image: nothing has been presented")
	}

	extent := a.Swapchain.Extent
	capture, err := a.Factory.CreateImage(utils.ImageOptions{
		Width:            extent.Width,
		Height:           extent.Height,
		Format:           a.Swapchain.Format,
		Tiling:           core1_0.ImageTilingLinear,
		Usage:            core1_0.ImageUsageTransferDst,
		InitialLayout:    core1_0.ImageLayoutUndefined,
		MemoryProperties: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
	})
	if err != nil {
		return errors.Wrap(err, "save image")
	}
	defer capture.Destroy(a.Device)

	cmd, err := a.BeginUpload()
	if err != nil {
		return err
	}

	err = a.recordCapture(cmd, a.Swapchain.Images[a.lastImage], capture)
	if err != nil {
		a.abortUpload()
		return errors.Wrap(err, "save image")
	}

	err = a.EndUpload()
	if err != nil {
		return errors.Wrap(err, "save image")
	}

	layout := a.DeviceDriver.GetImageSubresourceLayout(capture.Handle, &core1_0.ImageSubresource{
		AspectMask: core1_0.ImageAspectColor,
		MipLevel:   0,
		ArrayLayer: 0,
	})

	out, err := readPixels(capture.Bytes(), layout.Offset, layout.RowPitch, extent.Width, extent.Height, capture.Format)
	if err != nil {
		return errors.Wrap(err, "save image")
	}

	filename := fmt.Sprintf("%s.png", name)
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save image")
	}
	defer file.Close()

	err = png.Encode(file, out)
	if err != nil {
		return errors.Wrapf(err, "encode %s", filename)
	}

	a.Logger.Info("image saved", "file", filename)
	return nil
}

func (a *Application) recordCapture(cmd core1_0.CommandBuffer, source core1_0.Image, capture *utils.Image) error {
	err := capture.Transition(a.Device, cmd, core1_0.ImageLayoutTransferDstOptimal, 0,
		core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer)
	if err != nil {
		return err
	}

	err = utils.TransitionImageLayout(a.Device, cmd, source, core1_0.ImageAspectColor,
		khr_swapchain.ImageLayoutPresentSrc, core1_0.ImageLayoutTransferSrcOptimal,
		core1_0.AccessMemoryRead,
		core1_0.PipelineStageBottomOfPipe, core1_0.PipelineStageTransfer)
	if err != nil {
		return err
	}

	subresource := core1_0.ImageSubresourceLayers{
		AspectMask:     core1_0.ImageAspectColor,
		MipLevel:       0,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	err = a.DeviceDriver.CmdCopyImage(cmd,
		source, core1_0.ImageLayoutTransferSrcOptimal,
		capture.Handle, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.ImageCopy{
			SrcSubresource: subresource,
			DstSubresource: subresource,
			SrcOffset:      core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			DstOffset:      core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			Extent:         core1_0.Extent3D{Width: capture.Extent.Width, Height: capture.Extent.Height, Depth: 1},
		})
	if err != nil {
		return err
	}

	err = utils.TransitionImageLayout(a.Device, cmd, source, core1_0.ImageAspectColor,
		core1_0.ImageLayoutTransferSrcOptimal, khr_swapchain.ImageLayoutPresentSrc,
		core1_0.AccessTransferRead,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageBottomOfPipe)
	if err != nil {
		return err
	}

	return capture.Transition(a.Device, cmd, core1_0.ImageLayoutGeneral, core1_0.AccessTransferWrite,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageHost)
}

// readPixels converts a linear 4-byte-per-pixel image, as laid out in mapped
// memory, to RGBA. BGRA formats are swizzled.
func readPixels(data []byte, offset, rowPitch, width, height int, format core1_0.Format) (*image.RGBA, error) {
	var bgra bool
	switch format {
	case core1_0.FormatB8G8R8A8UnsignedNormalized, core1_0.FormatB8G8R8A8SRGB:
		bgra = true
	case core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.FormatR8G8B8A8SRGB:
	default:
		return nil, errors.Newf("unrecognized image format %s", format)
	}

	if offset+rowPitch*(height-1)+width*4 > len(data) {
		return nil, errors.Newf("%dx%d image with row pitch %d does not fit in %d bytes", width, height, rowPitch, len(data))
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[offset+y*rowPitch : offset+y*rowPitch+width*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+width*4]
		copy(dst, row)
		if bgra {
			for x := 0; x < len(dst); x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}

	return out, nil
}
