package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/geometry"
)

// SphereCfg describes one sphere in a scene file
type SphereCfg struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// FileCfg is the JSON layout of a scene file:
//
//	{"name": "two-spheres", "spheres": [{"center": [0, 0, -1], "radius": 0.5}]}
type FileCfg struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Group       string      `json:"group,omitempty"`
	Spheres     []SphereCfg `json:"spheres"`
}

// ParseSceneFile decodes a scene description from r
func ParseSceneFile(r io.Reader) (*FileCfg, error) {
	var cfg FileCfg
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	for i, sc := range cfg.Spheres {
		if !(sc.Radius > 0) {
			return nil, fmt.Errorf("sphere %d: radius must be > 0, got %v", i, sc.Radius)
		}
	}
	return &cfg, nil
}

// Build creates a scene from the decoded configuration
func (cfg *FileCfg) Build() *Scene {
	s := New(cfg.Name)
	for _, sc := range cfg.Spheres {
		center := core.NewVec3(sc.Center[0], sc.Center[1], sc.Center[2])
		s.Add(geometry.NewSphere(center, sc.Radius))
	}
	return s
}

// LoadSceneFile reads and builds a scene from a JSON file
func LoadSceneFile(path string) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	cfg, err := ParseSceneFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg.Build(), nil
}
