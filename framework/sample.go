package framework

// Sample is implemented by each demo program. The Application calls OnInit
// once every Vulkan object it owns exists, OnUpdate and OnRender once per
// frame, and OnDestroy after the device is idle at shutdown.
type Sample interface {
	OnInit(app *Application) error
	OnUpdate(app *Application, dt float64) error
	// OnRender records into frame.CommandBuffer. Recording has already begun
	// and is ended by the Application.
	OnRender(app *Application, frame *Frame) error
	OnDestroy(app *Application)
}

// Resizer is implemented by samples holding objects tied to the swapchain.
// OnResize runs after the swapchain and frames were rebuilt.
type Resizer interface {
	OnResize(app *Application) error
}
