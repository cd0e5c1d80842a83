package modules

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const desktopIconCacheSize = 200

// DefaultApplicationDirs returns the XDG application directories, most
// specific first.
func DefaultApplicationDirs() []string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

type desktopEntry struct {
	Icon    string
	WMClass string
}

// DesktopIcons maps window classes to the Icon key of the matching .desktop
// entry. Each class is resolved once; hits and misses are both cached.
type DesktopIcons struct {
	dirs  []string
	cache *lru.Cache[string, string]
}

// NewDesktopIcons creates a resolver over dirs.
func NewDesktopIcons(dirs []string) (*DesktopIcons, error) {
	cache, err := lru.New[string, string](desktopIconCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create desktop icon cache: %w", err)
	}
	return &DesktopIcons{dirs: dirs, cache: cache}, nil
}

// Lookup returns the icon name for class, or "" when no entry matches.
func (d *DesktopIcons) Lookup(class string) string {
	key := strings.ToLower(class)
	if key == "" {
		return ""
	}
	if icon, ok := d.cache.Get(key); ok {
		return icon
	}
	icon := d.resolve(key)
	d.cache.Add(key, icon)
	return icon
}

// resolve tries <class>.desktop in every directory, then falls back to
// scanning for a StartupWMClass match.
func (d *DesktopIcons) resolve(class string) string {
	for _, dir := range d.dirs {
		if e, err := parseDesktopEntry(filepath.Join(dir, class+".desktop")); err == nil && e.Icon != "" {
			return e.Icon
		}
	}

	var icon string
	for _, dir := range d.dirs {
		filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
			if err != nil || de.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}
			e, err := parseDesktopEntry(path)
			if err != nil {
				return nil
			}
			if strings.EqualFold(e.WMClass, class) && e.Icon != "" {
				icon = e.Icon
				return fs.SkipAll
			}
			return nil
		})
		if icon != "" {
			return icon
		}
	}
	return ""
}

// parseDesktopEntry reads the [Desktop Entry] group of a .desktop file.
func parseDesktopEntry(path string) (desktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return desktopEntry{}, err
	}
	defer f.Close()

	var e desktopEntry
	inEntry := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Icon":
			e.Icon = strings.TrimSpace(value)
		case "StartupWMClass":
			e.WMClass = strings.TrimSpace(value)
		}
	}
	return e, scanner.Err()
}

// iconKey normalizes an Icon value, which may be a theme name or a path, to
// a key of classIcons.
func iconKey(icon string) string {
	base := strings.ToLower(filepath.Base(icon))
	for _, ext := range []string{".png", ".svg", ".xpm"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
