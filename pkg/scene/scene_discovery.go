package scene

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultScenesDir is where scene files are looked up by name
const DefaultScenesDir = "scenes"

// ErrUnknownScene is returned when a scene name matches no built-in scene or file
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin", "pattern" or "file"
	FilePath    string `json:"filePath"`    // Path to scene file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtInGroup = "Built-in Scenes"

var builtInScenes = []SceneInfo{
	{
		ID:          "default",
		DisplayName: "Default Scene",
		Description: "Sphere resting on a large ground sphere",
		Group:       builtInGroup,
		Type:        "builtin",
	},
	{
		ID:          "empty",
		DisplayName: "Empty Sky",
		Description: "No objects, background gradient only",
		Group:       builtInGroup,
		Type:        "builtin",
	},
	{
		ID:          "gradient",
		DisplayName: "Gradient Test Pattern",
		Description: "256x256 red/green ramp for checking the image writer",
		Group:       builtInGroup,
		Type:        "pattern",
	},
}

// Resolve returns the scene for a built-in name, a scene file path, or the
// name of a JSON file inside scenesDir
func Resolve(name, scenesDir string) (*Scene, error) {
	switch name {
	case "default":
		return NewDefaultScene(), nil
	case "empty":
		return NewEmptyScene(), nil
	case "":
		return nil, fmt.Errorf("%w: empty scene name", ErrUnknownScene)
	}

	if strings.HasSuffix(name, ".json") {
		return LoadSceneFile(name)
	}

	path := filepath.Join(scenesDir, name+".json")
	if _, err := os.Stat(path); err == nil {
		return LoadSceneFile(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
}

// ListSceneFiles scans dir and returns the discovered scene files
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		// No scenes directory, nothing to list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, path := range files {
		info, err := parseSceneFileMetadata(path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

func parseSceneFileMetadata(path string) (SceneInfo, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := SceneInfo{
		ID:          base,
		DisplayName: titleCase(base),
		Group:       "Scene Files",
		Type:        "file",
		FilePath:    path,
	}

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer file.Close()

	cfg, err := ParseSceneFile(file)
	if err != nil {
		return info, err
	}
	if cfg.Name != "" {
		info.DisplayName = cfg.Name
	}
	if cfg.Group != "" {
		info.Group = cfg.Group
	}
	info.Description = cfg.Description
	if info.Description == "" {
		info.Description = fmt.Sprintf("%d spheres", len(cfg.Spheres))
	}
	return info, nil
}

// ListAllScenes returns both built-in scenes and scene files, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(append([]SceneInfo{}, builtInScenes...), fileScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, s := range allScenes {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{
		Name:   builtInGroup,
		Scenes: groupMap[builtInGroup],
	})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "two-spheres" -> "Two Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}

	return strings.Join(words, " ")
}
