package modules

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

const (
	wifiIconOn  = "󰤨"
	wifiIconOff = "󰤮"
)

// WifiStatus is the wireless connection state.
type WifiStatus struct {
	Connected bool
	Network   string
}

// ParseNmcliDevices reads `nmcli -t -f TYPE,STATE,CONNECTION device` output and
// returns the state of the first wifi device.
func ParseNmcliDevices(out []byte) WifiStatus {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "wifi:") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		if strings.EqualFold(parts[1], "connected") {
			return WifiStatus{Connected: true, Network: parts[2]}
		}
		return WifiStatus{}
	}
	return WifiStatus{}
}

// WirelessBytes returns total received plus sent bytes on the first wireless
// interface (names starting with "wl").
func WirelessBytes() (uint64, error) {
	counters, err := net.IOCounters(true)
	if err != nil {
		return 0, err
	}
	for _, c := range counters {
		if strings.HasPrefix(c.Name, "wl") {
			return c.BytesRecv + c.BytesSent, nil
		}
	}
	return 0, fmt.Errorf("no wireless interface")
}

// WifiWidget displays the wifi network name, or a sparkline of wireless
// throughput.
type WifiWidget struct {
	status    func() (WifiStatus, error)
	counter   func() (uint64, error)
	cadence   statusbar.Cadence
	sparkline *statusbar.Sparkline
	state     WifiStatus
	lastTotal uint64
	haveTotal bool
}

// NewWifiWidget creates a wifi widget polling every interval.
func NewWifiWidget(status func() (WifiStatus, error), counter func() (uint64, error), interval time.Duration, spark *statusbar.Sparkline) *WifiWidget {
	return &WifiWidget{
		status:    status,
		counter:   counter,
		cadence:   statusbar.NewEagerCadence(interval),
		sparkline: spark,
	}
}

// Cadence exposes the polling cadence
func (w *WifiWidget) Cadence() *statusbar.Cadence {
	return &w.cadence
}

func (w *WifiWidget) Update() error {
	if !w.cadence.Due() {
		return nil
	}
	st, err := w.status()
	if err != nil {
		return fmt.Errorf("wifi status: %w", err)
	}
	w.state = st

	if w.sparkline.Enabled && st.Connected {
		total, err := w.counter()
		if err != nil {
			return fmt.Errorf("wifi throughput: %w", err)
		}
		if w.haveTotal {
			var delta uint64
			if total > w.lastTotal {
				delta = total - w.lastTotal
			}
			w.sparkline.Push(delta)
		}
		w.lastTotal, w.haveTotal = total, true
	}
	return nil
}

func (w *WifiWidget) text() string {
	icon := wifiIconOff
	if w.state.Connected {
		icon = wifiIconOn
	}
	if w.sparkline.Enabled {
		return icon + " " + w.sparkline.String()
	}
	if w.state.Connected && w.state.Network != "" {
		return icon + " " + w.state.Network
	}
	return icon + " Off"
}

// Render shows the connection in blue, or red when disconnected.
func (w *WifiWidget) Render(colorize bool) []statusbar.Span {
	text := w.text()
	if !colorize {
		return []statusbar.Span{statusbar.Raw(text)}
	}
	color := statusbar.ColorBlue
	if !w.state.Connected {
		color = statusbar.ColorRed
	}
	return []statusbar.Span{statusbar.Fg(text, color)}
}

// WifiFactory builds WifiWidgets
type WifiFactory struct {
	deps Deps
}

func (f *WifiFactory) Name() string { return "wifi" }

func (f *WifiFactory) Create(opts config.Options) (statusbar.Widget, error) {
	spark := statusbar.NewSparkline(
		opts.Bool(config.OptSparkline, false),
		opts.Int(config.OptSparklineLength, 10),
		opts.Bool(config.OptSparklineLogarithmic, false),
	)
	interval := 2 * time.Second
	if spark.Enabled {
		interval = opts.Seconds(config.OptSparklineUpdateFreq, 5*time.Second)
	}
	interval = opts.Seconds(config.OptUpdateInterval, interval)

	status := func() (WifiStatus, error) {
		out, err := f.deps.run("nmcli", "-t", "-f", "TYPE,STATE,CONNECTION", "device")
		if err != nil {
			return WifiStatus{}, err
		}
		return ParseNmcliDevices(out), nil
	}
	return NewWifiWidget(status, WirelessBytes, interval, spark), nil
}
