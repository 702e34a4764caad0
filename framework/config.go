package framework

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// ErrHelp is returned by ProcessCommandLineArgs after printing usage.
var ErrHelp = errors.New("help requested")

type Config struct {
	Title      string `toml:"title"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	AssetsPath string `toml:"assets"`
	Validation bool   `toml:"validation"`
	VSync      bool   `toml:"vsync"`
	SaveImages bool   `toml:"save_images"`
	LogLevel   string `toml:"log_level"`
}

func DefaultConfig(title string) Config {
	return Config{
		Title:      title,
		Width:      800,
		Height:     600,
		AssetsPath: "assets",
		Validation: true,
		LogLevel:   "info",
	}
}

// LoadConfigFile overlays the settings found in a TOML file on c. Keys missing
// from the file keep their current value.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}

	err = toml.Unmarshal(data, c)
	if err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// ProcessCommandLineArgs applies command line options to c. args should not
// include the program name. Usage goes to out.
func (c *Config) ProcessCommandLineArgs(args []string, out io.Writer) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", errors.Newf("option %s needs a value", arg)
			}
			i++
			return args[i], nil
		}

		switch arg {
		case "--save-images":
			c.SaveImages = true
		case "--no-validation":
			c.Validation = false
		case "--vsync":
			c.VSync = true
		case "--assets":
			v, err := value()
			if err != nil {
				return err
			}
			c.AssetsPath = v
		case "--config":
			v, err := value()
			if err != nil {
				return err
			}
			err = c.LoadConfigFile(v)
			if err != nil {
				return err
			}
		case "--width", "--height":
			v, err := value()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "option %s", arg)
			}
			if arg == "--width" {
				c.Width = n
			} else {
				c.Height = n
			}
		case "--log-level":
			v, err := value()
			if err != nil {
				return err
			}
			c.LogLevel = v
		case "--help", "-h":
			printUsage(out)
			return ErrHelp
		default:
			fmt.Fprintf(out, "\nUnrecognized option: %s\n", arg)
			fmt.Fprintln(out, "\nUse --help or -h for option list.")
			return errors.Newf("unrecognized option %s", arg)
		}
	}

	return c.Validate()
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "\nOptions")
	fmt.Fprintln(out, "\t--save-images")
	fmt.Fprintln(out, "\t\tSave the last rendered frame as a png file in the current working directory")
	fmt.Fprintln(out, "\t--assets <dir>")
	fmt.Fprintln(out, "\t\tDirectory holding shaders/ and textures/")
	fmt.Fprintln(out, "\t--config <file>")
	fmt.Fprintln(out, "\t\tLoad settings from a TOML file")
	fmt.Fprintln(out, "\t--width <px>, --height <px>")
	fmt.Fprintln(out, "\t--no-validation")
	fmt.Fprintln(out, "\t--vsync")
	fmt.Fprintln(out, "\t--log-level debug|info|warn|error")
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("invalid window size %dx%d", c.Width, c.Height)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
