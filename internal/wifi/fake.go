package wifi

import "context"

// Fake is a test double for a Manager.
type Fake struct {
	Networks []Network

	// ScanErrors are returned by successive Scan calls before Networks.
	ScanErrors []error
	// ConnectErrors maps an SSID to the error Connect returns for it.
	ConnectErrors map[string]error

	Current  Status
	Attempts []string
	Scans    int
}

// Scan implements Manager.
func (f *Fake) Scan(ctx context.Context) ([]Network, error) {
	f.Scans++
	if len(f.ScanErrors) > 0 {
		err := f.ScanErrors[0]
		f.ScanErrors = f.ScanErrors[1:]
		return nil, err
	}
	if len(f.Networks) == 0 {
		return nil, ErrNoNetworks
	}
	return f.Networks, nil
}

// Connect implements Manager.
func (f *Fake) Connect(ctx context.Context, ssid, password string) error {
	f.Attempts = append(f.Attempts, ssid+":"+password)
	if err := f.ConnectErrors[ssid]; err != nil {
		return err
	}
	f.Current = Status{State: "connected", SSID: ssid, IP: "192.168.1.50"}
	return nil
}

// Status implements Manager.
func (f *Fake) Status(ctx context.Context) (Status, error) {
	return f.Current, nil
}
