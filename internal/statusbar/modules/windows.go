package modules

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/chess10kp/catbar/internal/compositor"
	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const defaultWindowIcon = "󰣆"

var titleIcons = []struct {
	prefix string
	icon   string
}{
	{"nvim", "\ue6ae"},
	{"neovim", "\ue6ae"},
	{"vim", "\ue62b"},
	{"emacs", "󰍹"},
	{"nano", "\ue838"},
	{"htop", "󰔚"},
	{"btop", "󰔚"},
	{"yazi", "󰇥"},
	{"ranger", "󰉋"},
	{"lf", "󰉋"},
	{"git", "󰊢"},
	{"man", "󰍹"},
	{"ssh", "󰣀"},
	{"cmus", "󰓇"},
	{"ncmpcpp", "󰓇"},
}

var classIcons = map[string]string{
	"firefox":                   "󰈹",
	"firefox-developer-edition": "󰈹",
	"librewolf":                 "󰈹",
	"google-chrome":             "󰊯",
	"chrome":                    "󰊯",
	"chromium":                  "󰊯",
	"brave-browser":             "󰖟",
	"vivaldi":                   "󰖟",
	"opera":                     "󰖟",
	"edge":                      "󰇩",
	"kitty":                     "󰄛",
	"alacritty":                 "󰆍",
	"foot":                      "󰆍",
	"gnome-terminal":            "󰆍",
	"konsole":                   "󰆍",
	"xterm":                     "󰆍",
	"neovide":                   "\ue6ae",
	"code":                      "󰨞",
	"code-oss":                  "󰨞",
	"sublime_text":              "󰅪",
	"zathura":                   "󰈦",
	"evince":                    "󰈦",
	"okular":                    "󰈦",
	"feh":                       "󰋩",
	"imv":                       "󰋩",
	"eog":                       "󰋩",
	"mpv":                       "󰐹",
	"vlc":                       "󰕼",
	"spotify":                   "󰓇",
	"discord":                   "󰙯",
	"slack":                     "󰒱",
	"thunderbird":               "󰇰",
	"obsidian":                  "󰠮",
	"steam":                     "󰓓",

	// Icon names found in .desktop entries.
	"org.gnome.nautilus":      "󰉋",
	"thunar":                  "󰉋",
	"org.pwmt.zathura":        "󰈦",
	"visual-studio-code":      "󰨞",
	"com.visualstudio.code":   "󰨞",
	"spotify-client":          "󰓇",
	"com.discordapp.discord":  "󰙯",
	"org.mozilla.firefox":     "󰈹",
	"org.mozilla.thunderbird": "󰇰",
	"org.telegram.desktop":    "\uf2c6",
	"telegram":                "\uf2c6",
	"signal-desktop":          "󰭹",
}

// AppIcon picks a glyph for a window, preferring terminal programs named in
// the title over the window class.
func AppIcon(class, title string) string {
	if icon, ok := knownIcon(class, title); ok {
		return icon
	}
	return defaultWindowIcon
}

func knownIcon(class, title string) (string, bool) {
	t := strings.ToLower(title)
	for _, ti := range titleIcons {
		if strings.HasPrefix(t, ti.prefix) {
			return ti.icon, true
		}
	}
	icon, ok := classIcons[strings.ToLower(class)]
	return icon, ok
}

// WindowsWidget shows one icon per window; the focused window is
// highlighted and may show its title.
type WindowsWidget struct {
	client      compositor.Client
	deps        Deps
	desktop     *DesktopIcons
	titleLength int

	windows []compositor.Window
	active  string
}

// NewWindowsWidget creates a windows widget. A positive titleLength shows
// the focused window's title truncated to that many cells. Classes missing
// from the built-in table are resolved through desktop when it is non-nil.
func NewWindowsWidget(client compositor.Client, deps Deps, desktop *DesktopIcons, titleLength int) *WindowsWidget {
	return &WindowsWidget{
		client:      client,
		deps:        deps,
		desktop:     desktop,
		titleLength: titleLength,
	}
}

func (w *WindowsWidget) Update() error {
	ctx, cancel := w.deps.ctx()
	defer cancel()

	wins, err := w.client.Windows(ctx)
	if err != nil {
		return fmt.Errorf("windows: %w", err)
	}
	active, ok, err := w.client.ActiveWindow(ctx)
	if err != nil {
		return fmt.Errorf("active window: %w", err)
	}
	if !ok {
		active = ""
	}
	w.windows, w.active = wins, active
	return nil
}

func (w *WindowsWidget) icon(win compositor.Window) string {
	if icon, ok := knownIcon(win.Class, win.Title); ok {
		return icon
	}
	if w.desktop != nil {
		if name := w.desktop.Lookup(win.Class); name != "" {
			if icon, ok := classIcons[iconKey(name)]; ok {
				return icon
			}
		}
	}
	return defaultWindowIcon
}

func (w *WindowsWidget) Render(colorize bool) []statusbar.Span {
	spans := make([]statusbar.Span, 0, len(w.windows))
	for _, win := range w.windows {
		text := " " + w.icon(win) + " "
		focused := win.ID == w.active && w.active != ""
		if focused && w.titleLength > 0 && win.Title != "" {
			text = " " + w.icon(win) + " " + runewidth.Truncate(win.Title, w.titleLength, "…") + " "
		}

		switch {
		case !colorize && focused:
			spans = append(spans, statusbar.Raw("["+strings.TrimSpace(text)+"]"))
		case !colorize:
			spans = append(spans, statusbar.Raw(text))
		case focused:
			spans = append(spans, statusbar.Span{Text: text, Fg: statusbar.ColorBlack, Bg: statusbar.ColorBlue})
		default:
			spans = append(spans, statusbar.Fg(text, statusbar.ColorWhite))
		}
	}
	return spans
}

// WindowsFactory builds WindowsWidgets. Every widget it creates shares one
// desktop icon resolver, so lookups survive reloads.
type WindowsFactory struct {
	deps    Deps
	desktop *DesktopIcons
}

func (f *WindowsFactory) Name() string { return "windows" }

func (f *WindowsFactory) Create(opts config.Options) (statusbar.Widget, error) {
	if f.desktop == nil {
		desktop, err := NewDesktopIcons(f.deps.ApplicationDirs)
		if err != nil {
			return nil, err
		}
		f.desktop = desktop
	}
	return NewWindowsWidget(f.deps.Compositor, f.deps, f.desktop, opts.Int(config.OptTitleLength, 0)), nil
}
