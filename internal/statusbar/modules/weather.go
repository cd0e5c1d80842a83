package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

// DefaultWeatherInterval is how often the weather is fetched.
const DefaultWeatherInterval = 10 * time.Minute

// WeatherData is one published weather reading.
type WeatherData struct {
	Temperature string
	Condition   string
	Icon        string
}

// Fetcher retrieves the current weather.
type Fetcher func(ctx context.Context) (WeatherData, error)

type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// WttrFetcher returns a Fetcher backed by wttr.in's JSON format. An empty
// location lets wttr.in geolocate the caller.
func WttrFetcher(client *http.Client, location string) Fetcher {
	endpoint := "https://wttr.in/" + url.PathEscape(location) + "?format=j1"
	return func(ctx context.Context) (WeatherData, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return WeatherData{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return WeatherData{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return WeatherData{}, fmt.Errorf("wttr.in: %s", resp.Status)
		}
		var body wttrResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return WeatherData{}, fmt.Errorf("decode wttr.in response: %w", err)
		}
		return parseWttr(body)
	}
}

func parseWttr(body wttrResponse) (WeatherData, error) {
	if len(body.CurrentCondition) == 0 {
		return WeatherData{}, fmt.Errorf("wttr.in: no current condition")
	}
	cur := body.CurrentCondition[0]
	temp := "--"
	if v, err := strconv.ParseFloat(cur.TempC, 64); err == nil {
		temp = strconv.Itoa(int(math.Round(v)))
	}
	condition := "Unknown"
	if len(cur.WeatherDesc) > 0 && cur.WeatherDesc[0].Value != "" {
		condition = strings.TrimSpace(cur.WeatherDesc[0].Value)
	}
	return WeatherData{Temperature: temp, Condition: condition, Icon: weatherIcon(condition)}, nil
}

func weatherIcon(condition string) string {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "clear"), strings.Contains(c, "sunny"):
		return "󰖙"
	case strings.Contains(c, "cloud"), strings.Contains(c, "overcast"):
		return "󰖐"
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"):
		return "󰖗"
	case strings.Contains(c, "snow"), strings.Contains(c, "sleet"):
		return "󰖘"
	case strings.Contains(c, "thunder"), strings.Contains(c, "storm"):
		return "󰖓"
	case strings.Contains(c, "fog"), strings.Contains(c, "mist"):
		return "󰖑"
	case strings.Contains(c, "wind"):
		return "󰖝"
	default:
		return "󰖐"
	}
}

func weatherColor(condition string) statusbar.Color {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "clear"), strings.Contains(c, "sunny"):
		return statusbar.ColorYellow
	case strings.Contains(c, "cloud"), strings.Contains(c, "overcast"):
		return statusbar.ColorGray
	case strings.Contains(c, "rain"), strings.Contains(c, "drizzle"):
		return statusbar.ColorBlue
	case strings.Contains(c, "snow"), strings.Contains(c, "sleet"):
		return statusbar.ColorCyan
	case strings.Contains(c, "thunder"), strings.Contains(c, "storm"):
		return statusbar.ColorMagenta
	case strings.Contains(c, "fog"), strings.Contains(c, "mist"):
		return statusbar.ColorDarkGray
	case strings.Contains(c, "wind"):
		return statusbar.ColorLightGreen
	default:
		return statusbar.ColorWhite
	}
}

// WeatherWidget fetches the weather in a background goroutine and renders
// the latest published reading. Update never blocks.
type WeatherWidget struct {
	mu      sync.Mutex
	data    WeatherData
	fetched time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWeatherWidget starts fetching immediately and then every interval
// until Close.
func NewWeatherWidget(fetch Fetcher, interval time.Duration, logger *slog.Logger) *WeatherWidget {
	ctx, cancel := context.WithCancel(context.Background())
	w := &WeatherWidget{
		data:   WeatherData{Temperature: "--", Condition: "Unknown", Icon: "󰖐"},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.loop(ctx, fetch, interval, logger.With("widget", "weather"))
	return w
}

func (w *WeatherWidget) loop(ctx context.Context, fetch Fetcher, interval time.Duration, logger *slog.Logger) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		data, err := fetch(reqCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("weather fetch failed", "err", err)
			}
		} else {
			w.mu.Lock()
			w.data = data
			w.fetched = time.Now()
			w.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Snapshot returns the latest reading and when it was fetched; the time is
// zero before the first successful fetch.
func (w *WeatherWidget) Snapshot() (WeatherData, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data, w.fetched
}

func (w *WeatherWidget) Update() error { return nil }

func (w *WeatherWidget) Render(colorize bool) []statusbar.Span {
	data, _ := w.Snapshot()
	text := fmt.Sprintf("%s %s°C", data.Icon, data.Temperature)
	if !colorize {
		return []statusbar.Span{statusbar.Raw(text)}
	}
	return []statusbar.Span{statusbar.Fg(text, weatherColor(data.Condition))}
}

// Close stops the background fetcher and waits for it to exit.
func (w *WeatherWidget) Close() error {
	w.cancel()
	<-w.done
	return nil
}

// WeatherFactory builds WeatherWidgets
type WeatherFactory struct {
	deps  Deps
	fetch Fetcher
}

func (f *WeatherFactory) Name() string { return "weather" }

func (f *WeatherFactory) Create(opts config.Options) (statusbar.Widget, error) {
	fetch := f.fetch
	if fetch == nil {
		fetch = WttrFetcher(f.deps.HTTPClient, opts.String(config.OptLocation, ""))
	}
	interval := opts.Seconds(config.OptUpdateInterval, DefaultWeatherInterval)
	return NewWeatherWidget(fetch, interval, f.deps.Logger), nil
}
