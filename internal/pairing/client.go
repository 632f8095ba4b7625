// Package pairing claims a one-time pairing code against the Gateway's
// HTTP API, producing the long-lived credentials the control channel
// authenticates with.
package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
)

const claimTimeout = 10 * time.Second

type claimRequest struct {
	Code       string `json:"code"`
	DeviceName string `json:"deviceName"`
}

type claimResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	CompanionID string `json:"companionId"`
	Role        string `json:"role"`
	AuthToken   string `json:"authToken"`
}

// Claim exchanges a pairing code for credentials. The code is single-use;
// a rejected or expired code surfaces as an error, not a retry.
func Claim(ctx context.Context, gatewayURL, code string) (*creds.Credentials, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "companion"
	}

	body, err := json.Marshal(claimRequest{Code: code, DeviceName: hostname})
	if err != nil {
		return nil, fmt.Errorf("encode pairing request: %w", err)
	}

	base := strings.TrimRight(gatewayURL, "/")
	endpoint := base + "/api/companion/pair"
	ctx, cancel := context.WithTimeout(ctx, claimTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build pairing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pair with %s: %w", gatewayURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read pairing response: %w", err)
	}

	var parsed claimResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode pairing response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !parsed.Success {
		if parsed.Error != "" {
			return nil, fmt.Errorf("pairing rejected: %s", parsed.Error)
		}
		return nil, fmt.Errorf("pairing rejected (HTTP %d)", resp.StatusCode)
	}
	if parsed.CompanionID == "" || parsed.AuthToken == "" {
		return nil, fmt.Errorf("pairing response missing credentials")
	}

	return &creds.Credentials{
		GatewayURL:  base,
		CompanionID: parsed.CompanionID,
		Role:        parsed.Role,
		AuthToken:   parsed.AuthToken,
	}, nil
}
