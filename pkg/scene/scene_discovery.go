package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const builtinGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, passed to Load
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "model"
	FilePath    string `json:"filePath"`    // Path to the model file (model type only)
	Variant     string `json:"variant"`     // Native packing variant
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

var builtinInfo = map[string]SceneInfo{
	"cube": {
		Name:        "Cube",
		Description: "Tilted cube with three Phong materials",
		Variant:     "phong",
	},
	"shadow-box": {
		Name:        "Shadow Box",
		Description: "Box floating over a ground quad, casting a shadow",
		Variant:     "metallic-roughness",
	},
	"triangle": {
		Name:        "Triangle",
		Description: "Single flat triangle facing the camera",
		Variant:     "phong",
	},
}

// ListBuiltinScenes returns metadata for every built-in scene
func ListBuiltinScenes() []SceneInfo {
	var scenes []SceneInfo
	for _, id := range BuiltinNames() {
		info := builtinInfo[id]
		info.ID = id
		info.DisplayName = info.Name
		info.Group = builtinGroup
		info.Type = "builtin"
		scenes = append(scenes, info)
	}
	return scenes
}

// ListModelScenes scans the models directory for loadable model files
func ListModelScenes() ([]SceneInfo, error) {
	possiblePaths := []string{"models", "../models"}
	var modelsDir string

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			modelsDir = path
			break
		}
	}
	if modelsDir == "" {
		return []SceneInfo{}, nil
	}

	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("scene: scan models directory: %w", err)
	}

	var scenes []SceneInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsModelFile(entry.Name()) {
			continue
		}
		info, err := ParseModelMetadata(filepath.Join(modelsDir, entry.Name()))
		if err != nil {
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseModelMetadata extracts metadata from the leading comments of a model
// file. OBJ files use "# Key: value" lines, PLY headers "comment Key: value".
// Other formats only get values derived from the file name.
func ParseModelMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filename))
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          filePath,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Models",
		Type:        "model",
		FilePath:    filePath,
		Variant:     "phong",
	}
	if ext == ".gltf" || ext == ".glb" {
		info.Variant = "metallic-roughness"
		return info, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, nil
	}
	defer file.Close()

	var prefix string
	switch ext {
	case ".obj":
		prefix = "#"
	case ".ply":
		prefix = "comment"
	}

	var variant string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if ext == ".ply" && (line == "ply" || strings.HasPrefix(line, "format")) {
			continue
		}
		if !strings.HasPrefix(line, prefix) {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		key, value, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Scene":
			info.Name = value
		case "Variant":
			variant = value
		case "Description":
			info.Description = value
		case "Group":
			info.Group = value
		}
	}

	if variant != "" {
		info.DisplayName = fmt.Sprintf("%s - %s", info.Name, variant)
	} else {
		info.DisplayName = info.Name
	}
	return info, scanner.Err()
}

// ListAllScenes returns built-in and model scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	modelScenes, err := ListModelScenes()
	if err != nil {
		return response, err
	}
	allScenes := append(ListBuiltinScenes(), modelScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, s := range allScenes {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: group})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "shadow-box" -> "Shadow Box"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
