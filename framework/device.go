package framework

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
	"golang.org/x/exp/slog"

	"github.com/PAMinerva/LearnVulkan-sub001/utils"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func (a *Application) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    a.Config.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "LearnVulkan",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := a.window.VulkanGetInstanceExtensions()
	extensions, _, err := a.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if a.validation {
		layers, _, err := a.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		for _, layer := range validationLayers {
			if _, hasLayer := layers[layer]; !hasLayer || !hasDebugUtils {
				a.Logger.Warn("validation unavailable, continuing without it", "layer", layer)
				a.validation = false
				break
			}
		}
	}

	if a.validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayers...)
		instanceOptions.Next = a.debugMessengerOptions()
	}

	a.instanceDriver, _, err = a.globalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (a *Application) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityInfo,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    a.logDebug,
	}
}

func (a *Application) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	a.Logger.Log(context.Background(), severityLevel(severity), data.Message, "type", msgType)
	return false
}

func (a *Application) setupDebugMessenger() error {
	if !a.validation {
		return nil
	}

	var err error
	a.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(a.instanceDriver)
	a.debugMessenger, _, err = a.debugDriver.CreateDebugUtilsMessenger(nil, a.debugMessengerOptions())
	return err
}

func (a *Application) createSurface() error {
	a.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(a.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(a.instanceDriver.Instance(), a.surfaceExtension, a.window)
	if err != nil {
		return err
	}

	a.surface = surface
	a.Instance = utils.NewInstanceDriver(a.instanceDriver, a.surfaceExtension)
	return nil
}

// deviceCheck reports whether a physical device can run the samples. A false
// result with a nil error rejects the device without a reason to report.
type deviceCheck func(device core1_0.PhysicalDevice) (bool, error)

// firstSuitableDevice returns the index of the first device check accepts.
// When none is accepted, the reasons the devices were rejected are returned,
// so a missing extension still surfaces as a utils.CapabilityError.
func firstSuitableDevice(devices []core1_0.PhysicalDevice, check deviceCheck, logger *slog.Logger) (int, error) {
	if len(devices) == 0 {
		return -1, errors.New("no Vulkan devices found")
	}

	var rejected error
	for i, device := range devices {
		ok, err := check(device)
		if err != nil {
			logger.Warn("skipping device", "index", i, "error", err)
			rejected = errors.CombineErrors(rejected, err)
			continue
		}
		if !ok {
			logger.Warn("skipping device", "index", i, "reason", "no queue family can render and present")
			continue
		}
		return i, nil
	}

	if rejected != nil {
		return -1, errors.Wrap(rejected, "failed to find a suitable GPU")
	}
	return -1, errors.New("failed to find a suitable GPU")
}

// pickPhysicalDevice takes the first device that passes the capability check
// and can present at least one format in one mode.
func (a *Application) pickPhysicalDevice() error {
	physicalDevices, _, err := a.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	var params utils.DeviceParams
	index, err := firstSuitableDevice(physicalDevices, func(device core1_0.PhysicalDevice) (bool, error) {
		params = utils.DeviceParams{PhysicalDevice: device}

		ok, err := utils.CheckCapabilities(a.Instance, device, a.surface, &params, utils.RequiredDeviceExtensions)
		if err != nil || !ok {
			return ok, err
		}

		support, err := a.querySurfaceSupport(device)
		if err != nil {
			return false, err
		}
		if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
			return false, errors.New("surface has no formats or present modes")
		}
		return true, nil
	}, a.Logger)
	if err != nil {
		return err
	}

	device := physicalDevices[index]
	params.MemoryTypes = a.Instance.MemoryTypes(device)
	a.Params = params

	properties, err := a.instanceDriver.GetPhysicalDeviceProperties(device)
	if err == nil {
		a.Logger.Info("selected device", "name", properties.DeviceName, "memoryTypes", len(params.MemoryTypes))
	}
	return nil
}

func (a *Application) createLogicalDevice() error {
	family := *a.Params.Queue.FamilyIndex

	extensionNames := append([]string{}, utils.RequiredDeviceExtensions...)

	// Makes the samples run on portability drivers such as MoltenVK
	extensions, _, err := a.instanceDriver.EnumerateDeviceExtensionProperties(a.Params.PhysicalDevice)
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	a.DeviceDriver, _, err = a.instanceDriver.CreateDevice(a.Params.PhysicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: family,
				QueuePriorities:  []float32{1.0},
			},
		},
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	a.Params.Queue.Handle = a.DeviceDriver.GetQueue(family, 0)
	a.Device = utils.NewDeviceDriver(a.DeviceDriver)
	a.Factory = utils.NewFactory(a.Device, a.Params.MemoryTypes, a.Logger)
	return nil
}

func (a *Application) createCommandPool() error {
	pool, _, err := a.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *a.Params.Queue.FamilyIndex,
	})
	if err != nil {
		return err
	}

	a.commandPool = pool
	return nil
}
