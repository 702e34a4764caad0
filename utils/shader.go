package utils

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/sync/errgroup"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// LoadShaderModule reads name from fsys and builds a shader module from it.
// The file contents are not retained.
func LoadShaderModule(driver ShaderDriver, fsys fs.FS, name string) (core1_0.ShaderModule, error) {
	code, err := fs.ReadFile(fsys, name)
	if err != nil {
		return core1_0.ShaderModule{}, newError(ShaderLoadError, "read "+name, 0, err)
	}

	module, err := CreateShaderModule(driver, code)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Op = name + ": " + e.Op
		}
		return core1_0.ShaderModule{}, err
	}
	return module, nil
}

func CreateShaderModule(driver ShaderDriver, code []byte) (core1_0.ShaderModule, error) {
	byteCode, err := bytesToBytecode(code)
	if err != nil {
		return core1_0.ShaderModule{}, newError(ShaderLoadError, "decode spir-v", 0, err)
	}

	module, res, err := driver.CreateShaderModule(core1_0.ShaderModuleCreateInfo{
		Code: byteCode,
	})
	if err != nil {
		return core1_0.ShaderModule{}, newError(ShaderLoadError, "create shader module", res, err)
	}
	return module, nil
}

// LoadShaderModules reads every file concurrently and then creates the
// modules in order on the calling goroutine. If any step fails the modules
// created so far are destroyed.
func LoadShaderModules(driver ShaderDriver, fsys fs.FS, names ...string) ([]core1_0.ShaderModule, error) {
	sources := make([][]byte, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			code, err := fs.ReadFile(fsys, name)
			if err != nil {
				return newError(ShaderLoadError, "read "+name, 0, err)
			}
			sources[i] = code
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules := make([]core1_0.ShaderModule, 0, len(names))
	for i, code := range sources {
		module, err := CreateShaderModule(driver, code)
		if err != nil {
			for _, m := range modules {
				driver.DestroyShaderModule(m)
			}
			return nil, errors.Wrap(err, names[i])
		}
		modules = append(modules, module)
	}
	return modules, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.New("empty shader code")
	}
	if len(b)%4 != 0 {
		return nil, errors.Newf("shader code size %d is not a multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	if byteCode[0] != SPIRVMagic {
		return nil, errors.Newf("bad magic number %#08x", byteCode[0])
	}
	return byteCode, nil
}
