package gpu

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
	"github.com/gogpu/shapes"
)

// Embedded WGSL shader sources.

//go:embed shaders/quad.wgsl
var quadShaderSource string

//go:embed shaders/rect.wgsl
var rectShaderSource string

//go:embed shaders/ellipse.wgsl
var ellipseShaderSource string

// fragmentSources maps each shape kind to its fragment stage.
var fragmentSources = map[shapes.Kind]string{
	shapes.Rectangle: rectShaderSource,
	shapes.Ellipse:   ellipseShaderSource,
}

// Precompiled blob file names looked up by LoadShaderBlobs.
const (
	quadBlobName    = "quad.vert.spv"
	rectBlobName    = "rect.frag.spv"
	ellipseBlobName = "ellipse.frag.spv"
)

var fragmentBlobNames = map[shapes.Kind]string{
	shapes.Rectangle: rectBlobName,
	shapes.Ellipse:   ellipseBlobName,
}

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ErrInvalidShaderBlob is returned for files that are not SPIR-V modules.
var ErrInvalidShaderBlob = errors.New("gpu: invalid SPIR-V blob")

// ShaderSet is the compiled code for the shared vertex stage and one
// fragment stage per shape kind.
type ShaderSet struct {
	Vertex      []uint32
	VertexEntry string

	Fragments     map[shapes.Kind][]uint32
	FragmentEntry string
}

// CompileShaders compiles the embedded WGSL sources to SPIR-V.
func CompileShaders() (*ShaderSet, error) {
	vs, err := compileWGSL("quad", quadShaderSource)
	if err != nil {
		return nil, err
	}
	set := &ShaderSet{
		Vertex:        vs,
		VertexEntry:   "vs_main",
		Fragments:     make(map[shapes.Kind][]uint32, len(fragmentSources)),
		FragmentEntry: "fs_main",
	}
	for _, kind := range shapes.Kinds() {
		fs, err := compileWGSL(kind.String(), fragmentSources[kind])
		if err != nil {
			return nil, err
		}
		set.Fragments[kind] = fs
	}
	return set, nil
}

// LoadShaderBlobs reads precompiled SPIR-V modules from dir: quad.vert.spv
// for the vertex stage and rect.frag.spv / ellipse.frag.spv for the fragment
// stages. Every module must export its stage as "main".
func LoadShaderBlobs(dir string) (*ShaderSet, error) {
	vs, err := readBlob(filepath.Join(dir, quadBlobName))
	if err != nil {
		return nil, err
	}
	set := &ShaderSet{
		Vertex:        vs,
		VertexEntry:   "main",
		Fragments:     make(map[shapes.Kind][]uint32, len(fragmentBlobNames)),
		FragmentEntry: "main",
	}
	for _, kind := range shapes.Kinds() {
		fs, err := readBlob(filepath.Join(dir, fragmentBlobNames[kind]))
		if err != nil {
			return nil, err
		}
		set.Fragments[kind] = fs
	}
	slogger().Debug("gpu: loaded shader blobs", "dir", dir)
	return set, nil
}

// LoadShaders returns the blobs in dir, or the embedded shaders compiled at
// runtime when dir is empty.
func LoadShaders(dir string) (*ShaderSet, error) {
	if dir == "" {
		return CompileShaders()
	}
	return LoadShaderBlobs(dir)
}

func compileWGSL(name, source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s shader: %w", name, err)
	}
	return spirvWords(spirvBytes)
}

func readBlob(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gpu: read shader blob: %w", err)
	}
	words, err := spirvWords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// spirvWords converts little-endian SPIR-V bytes to words and checks the
// module header.
func spirvWords(data []byte) ([]uint32, error) {
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidShaderBlob, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: magic %#08x", ErrInvalidShaderBlob, words[0])
	}
	return words, nil
}
