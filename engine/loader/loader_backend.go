package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

// loaderBackend defines the generic interface for loading controller definitions from files or streams.
// Concrete implementations (e.g., yamlLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load decodes and builds a controller model from the given file path.
	// Relative script paths inside the definition are resolved against the file's directory.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *state_machine.ControllerModel: the resolved controller model
	//   - error: error if decoding, validation or resolution fails
	Load(path string) (*state_machine.ControllerModel, error)

	// LoadReader decodes and builds a controller model from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing definition data
	//   - name: the controller name used when the definition does not declare one
	//   - baseDir: the directory relative script paths are resolved against
	//
	// Returns:
	//   - *state_machine.ControllerModel: the resolved controller model
	//   - error: error if decoding, validation or resolution fails
	LoadReader(r io.Reader, name, baseDir string) (*state_machine.ControllerModel, error)
}
