package wifi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/kv"
)

// Keys of the stored credentials.
const (
	KeySSID     = "wifi_ssid"
	KeyPassword = "wifi_pass"
)

// Setup associates with a network. Stored credentials are tried first;
// otherwise, or if they fail, the operator picks a network from a
// numbered list and enters its password. Empty scans and failed
// associations lead to a new prompt. Setup returns when associated or
// when ctx ends. Successful credentials are stored.
func Setup(ctx context.Context, m Manager, store kv.Store, c *Console) (Status, error) {
	ssid, _ := store.GetString(KeySSID, "")
	if ssid != "" {
		pass, _ := store.GetString(KeyPassword, "")
		log.Printf("wifi: joining stored network %q", ssid)
		err := m.Connect(ctx, ssid, pass)
		if err == nil {
			return m.Status(ctx)
		}
		log.Printf("wifi: %v", err)
		c.Printf("Could not join %s: %v\n", ssid, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return Status{}, err
		}
		nw, err := choose(ctx, m, c)
		if err != nil {
			if errors.Is(err, errRetry) {
				continue
			}
			return Status{}, err
		}

		pass := ""
		if nw.Security != "" && nw.Security != "--" {
			pass, err = c.ReadSecret(ctx, fmt.Sprintf("Password for %s: ", nw.SSID))
			if err != nil {
				return Status{}, err
			}
		}

		c.Printf("Connecting to %s...\n", nw.SSID)
		if err := m.Connect(ctx, nw.SSID, pass); err != nil {
			err = fault.New(fault.NetworkTransient, "wifi connect", err)
			log.Printf("wifi: %v", err)
			c.Printf("Could not connect: %v\n", err)
			continue
		}
		if err := store.Put(kv.String(KeySSID, nw.SSID), kv.String(KeyPassword, pass)); err != nil {
			log.Printf("wifi: store credentials: %v", err)
		}
		c.Printf("Connected to %s\n", nw.SSID)
		return m.Status(ctx)
	}
}

var errRetry = errors.New("retry")

// choose scans, lists the networks and reads the operator's choice.
func choose(ctx context.Context, m Manager, c *Console) (Network, error) {
	nets, err := m.Scan(ctx)
	if err != nil {
		log.Printf("wifi: %v", fault.New(fault.NetworkTransient, "wifi scan", err))
		if _, err := c.ReadLine(ctx, "No networks found. Press Enter to scan again: "); err != nil {
			return Network{}, err
		}
		return Network{}, errRetry
	}

	c.Printf("Networks:\n")
	for i, nw := range nets {
		c.Printf("%2d) %s (%d%%)\n", i+1, nw.SSID, nw.Signal)
	}
	line, err := c.ReadLine(ctx, fmt.Sprintf("Select network [1-%d]: ", len(nets)))
	if err != nil {
		return Network{}, err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(nets) {
		c.Printf("Invalid choice %q\n", line)
		return Network{}, errRetry
	}
	return nets[n-1], nil
}
