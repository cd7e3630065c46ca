package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// DefaultInterface is the wireless interface managed by NMCLI.
const DefaultInterface = "wlan0"

// NMCLI manages the interface through NetworkManager's command line tool.
type NMCLI struct {
	Interface string

	// run executes a command and returns its standard output.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewNMCLI returns an NMCLI for iface.
func NewNMCLI(iface string) *NMCLI {
	if iface == "" {
		iface = DefaultInterface
	}
	return &NMCLI{Interface: iface, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return out, fmt.Errorf("%s: %s", name, strings.TrimSpace(string(ee.Stderr)))
	}
	return out, err
}

// Scan implements Manager. Networks are returned strongest first, one per
// SSID, at most MaxNetworks.
func (n *NMCLI) Scan(ctx context.Context) ([]Network, error) {
	out, err := n.run(ctx, "nmcli", "-t", "-f", "SSID,SIGNAL,SECURITY", "device", "wifi", "list", "ifname", n.Interface, "--rescan", "yes")
	if err != nil {
		return nil, fmt.Errorf("wifi scan: %w", err)
	}
	nets := parseScan(string(out))
	if len(nets) == 0 {
		return nil, ErrNoNetworks
	}
	return nets, nil
}

func parseScan(out string) []Network {
	best := make(map[string]Network)
	for _, line := range strings.Split(out, "\n") {
		f := splitTerse(line)
		if len(f) < 3 || f[0] == "" {
			continue
		}
		signal, _ := strconv.Atoi(f[1])
		nw := Network{SSID: f[0], Signal: signal, Security: f[2]}
		if cur, ok := best[nw.SSID]; !ok || nw.Signal > cur.Signal {
			best[nw.SSID] = nw
		}
	}
	nets := make([]Network, 0, len(best))
	for _, nw := range best {
		nets = append(nets, nw)
	}
	sort.Slice(nets, func(i, j int) bool {
		if nets[i].Signal != nets[j].Signal {
			return nets[i].Signal > nets[j].Signal
		}
		return nets[i].SSID < nets[j].SSID
	})
	if len(nets) > MaxNetworks {
		nets = nets[:MaxNetworks]
	}
	return nets
}

// splitTerse splits a line of nmcli terse output on unescaped colons.
func splitTerse(line string) []string {
	var (
		fields []string
		b      strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line):
			i++
			b.WriteByte(line[i])
		case line[i] == ':':
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(line[i])
		}
	}
	if line != "" {
		fields = append(fields, b.String())
	}
	return fields
}

// Connect implements Manager.
func (n *NMCLI) Connect(ctx context.Context, ssid, password string) error {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	args := []string{"device", "wifi", "connect", ssid, "ifname", n.Interface}
	if password != "" {
		args = append(args, "password", password)
	}
	if _, err := n.run(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("wifi connect %q: %w", ssid, err)
	}
	return nil
}

// Status implements Manager.
func (n *NMCLI) Status(ctx context.Context) (Status, error) {
	out, err := n.run(ctx, "nmcli", "-t", "-f", "GENERAL.STATE,GENERAL.CONNECTION,IP4.ADDRESS", "device", "show", n.Interface)
	if err != nil {
		return Status{}, fmt.Errorf("wifi status: %w", err)
	}
	return parseStatus(string(out)), nil
}

func parseStatus(out string) Status {
	var s Status
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case key == "GENERAL.STATE":
			// e.g. "100 (connected)"
			if i := strings.Index(value, "("); i >= 0 {
				s.State = strings.TrimSuffix(value[i+1:], ")")
			} else {
				s.State = value
			}
		case key == "GENERAL.CONNECTION":
			s.SSID = value
		case strings.HasPrefix(key, "IP4.ADDRESS") && s.IP == "":
			s.IP, _, _ = strings.Cut(value, "/")
		}
	}
	if s.State == "" {
		s.State = "unknown"
	}
	return s
}
