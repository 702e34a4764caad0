package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// RequiredDeviceExtensions are the device extensions every sample needs.
var RequiredDeviceExtensions = []string{khr_swapchain.ExtensionName}

// Queue identifies a command submission channel. FamilyIndex is nil until
// the capability prober resolves it.
type Queue struct {
	Handle      core1_0.Queue
	FamilyIndex *int
}

func (q Queue) Resolved() bool {
	return q.FamilyIndex != nil
}

// DeviceParams collects what the application learns about the device it runs on.
type DeviceParams struct {
	PhysicalDevice core1_0.PhysicalDevice
	Queue          Queue
	MemoryTypes    MemoryTypes
}

// CheckCapabilities verifies that physicalDevice exposes every extension in
// required and looks for a queue family that can both render and present to
// surface. The first family, by index, that has queues, graphics support and
// presentation support is written into params.Queue.FamilyIndex.
//
// A missing extension or a device without queue families is a CapabilityError.
// When no family qualifies the result is false with a nil error, so callers can
// move on to another device. Graphics-only and present-only families are never
// combined.
func CheckCapabilities(src CapabilitySource, physicalDevice core1_0.PhysicalDevice, surface khr_surface.Surface, params *DeviceParams, required []string) (bool, error) {
	available, res, err := src.DeviceExtensions(physicalDevice)
	if err != nil {
		return false, newError(CapabilityError, "enumerate device extensions", res, err)
	}

	supported := make(map[string]struct{}, len(available))
	for _, name := range available {
		supported[name] = struct{}{}
	}

	for _, name := range required {
		if _, ok := supported[name]; !ok {
			return false, newError(CapabilityError, "check device extensions", 0,
				errors.Newf("missing extension %s", name))
		}
	}

	families := src.QueueFamilies(physicalDevice)
	if len(families) == 0 {
		return false, newError(CapabilityError, "enumerate queue families", 0,
			errors.New("device reports no queue families"))
	}

	for index, family := range families {
		presents, res, err := src.SurfaceSupport(physicalDevice, surface, index)
		if err != nil {
			return false, newError(CapabilityError, "query surface support", res,
				errors.Wrapf(err, "queue family %d", index))
		}

		if family.Count > 0 && (family.Flags&core1_0.QueueGraphics) != 0 && presents {
			selected := index
			params.Queue.FamilyIndex = &selected
			return true, nil
		}
	}

	return false, nil
}
