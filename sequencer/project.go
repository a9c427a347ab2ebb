package sequencer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/mitchellh/go-homedir"
)

const saveTimeLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved pattern file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Projects stores pattern saves as timestamped JSON files, one folder per
// project, under Root.
type Projects struct {
	Root string
}

// DefaultProjects uses ~/.config/go-drumseq/projects.
func DefaultProjects() (*Projects, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	return &Projects{Root: filepath.Join(home, ".config", "go-drumseq", "projects")}, nil
}

// Dir returns the path to a specific project
func (ps *Projects) Dir(project string) string {
	return filepath.Join(ps.Root, project)
}

// List returns all project folder names
func (ps *Projects) List() ([]string, error) {
	entries, err := os.ReadDir(ps.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Saves returns timestamped saves for a project, newest first
func (ps *Projects) Saves(project string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(ps.Dir(project))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, ok := parseSaveName(entry.Name())
		if !ok {
			continue
		}
		saves = append(saves, info)
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(saveTimeLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.ParseInLocation(saveTimeLayout, base[:len(saveTimeLayout)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if len(base) > len(saveTimeLayout)+1 && base[len(saveTimeLayout)] == '_' {
		name = base[len(saveTimeLayout)+1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes p into project as a new timestamped file and returns its name.
func (ps *Projects) Save(project, name string, p Pattern, now time.Time) (string, error) {
	if project == "" {
		project = "untitled"
	}
	dir := ps.Dir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fault.Wrap(err, fmsg.WithDesc("create project dir", "Could not save project"))
	}

	filename := now.Format(saveTimeLayout)
	if name != "" {
		filename += "_" + sanitizeFilename(name)
	}
	filename += ".json"

	if err := SavePatternFile(filepath.Join(dir, filename), p); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads a specific save, or the most recent one if filename is empty.
func (ps *Projects) Load(project, filename string) (Pattern, error) {
	if filename == "" {
		saves, err := ps.Saves(project)
		if err != nil {
			return Pattern{}, err
		}
		if len(saves) == 0 {
			return Pattern{}, fault.New(fmt.Sprintf("no saves found in project %s", project),
				fmsg.WithDesc("no saves", "Project has no saves"), ftag.With(ftag.NotFound))
		}
		filename = saves[0].Filename
	}
	return LoadPatternFile(filepath.Join(ps.Dir(project), filename))
}

// DeleteSave deletes a specific save file
func (ps *Projects) DeleteSave(project, filename string) error {
	if err := checkName(project); err != nil {
		return err
	}
	if err := checkName(filename); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(ps.Dir(project), filename))
	if os.IsNotExist(err) {
		return fault.Wrap(err, fmsg.WithDesc("no save", "Save not found: "+filename), ftag.With(ftag.NotFound))
	}
	return err
}

// RenameSave changes the name part of a save, keeping its timestamp
func (ps *Projects) RenameSave(project, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fault.New("invalid save filename "+oldFilename, ftag.With(ftag.InvalidArgument))
	}
	newFilename := info.Timestamp.Format(saveTimeLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".json"

	dir := ps.Dir(project)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// DeleteProject deletes entire project folder
func (ps *Projects) DeleteProject(project string) error {
	if err := checkName(project); err != nil {
		return err
	}
	dir := ps.Dir(project)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fault.Wrap(err, fmsg.WithDesc("no project", "Project not found: "+project), ftag.With(ftag.NotFound))
	}
	return os.RemoveAll(dir)
}

// checkName rejects names that would resolve outside a single directory
// level under Root.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fault.New("invalid name "+name,
			fmsg.WithDesc("invalid name", "Invalid name: "+name), ftag.With(ftag.InvalidArgument))
	}
	return nil
}

// LoadPatternFile reads a pattern JSON file and normalizes it.
func LoadPatternFile(path string) (Pattern, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Pattern{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pattern{}, fault.Wrap(err, fmsg.WithDesc("read pattern", "Pattern file not found"), ftag.With(ftag.NotFound))
		}
		return Pattern{}, fault.Wrap(err, fmsg.WithDesc("read pattern", "Could not read pattern file"))
	}
	var p Pattern
	if err := json.Unmarshal(data, &p); err != nil {
		return Pattern{}, fault.Wrap(err, fmsg.WithDesc("parse pattern "+path, "Pattern file is not valid JSON"),
			ftag.With(ftag.InvalidArgument))
	}
	return p.Normalize(), nil
}

// SavePatternFile writes p as indented JSON.
func SavePatternFile(path string, p Pattern) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("write pattern", "Could not save project"))
	}
	return nil
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	).Replace(name)
}
