package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/hideoutdb/searchd/internal/config"
	"github.com/hideoutdb/searchd/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool
	var addr string
	var token string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running searchd instance",
		Long: `Query the health endpoint of a running instance and report the
index and upstream catalog state. Without --token a short-lived token is
signed from the configured secret.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, addr, token, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&addr, "addr", "", "Server base URL (default from config)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (default: sign one locally)")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, addr, token string, jsonOutput bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if addr == "" {
		addr = "http://" + cfg.ListenAddr()
	}
	if token == "" {
		token, err = signStatusToken(cfg)
		if err != nil {
			return fmt.Errorf("failed to sign status token: %w", err)
		}
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	info := fetchHealth(ctx, addr, token)

	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

// signStatusToken issues a one-minute token for a single health probe.
func signStatusToken(cfg *config.Config) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "searchd-cli",
		Subject:   "status",
		Audience:  cfg.JWT.Audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.JWT.Secret))
}

func fetchHealth(ctx context.Context, addr, token string) ui.HealthInfo {
	info := ui.HealthInfo{Endpoint: addr}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/health", nil)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		info.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return info
	}

	var body struct {
		OK      bool `json:"ok"`
		Service struct {
			Index    int `json:"index"`
			Upstream int `json:"upstream"`
		} `json:"service"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		info.Error = err.Error()
		return info
	}

	info.OK = body.OK
	info.Index = gradeName(body.Service.Index)
	info.Upstream = gradeName(body.Service.Upstream)
	return info
}

func gradeName(v int) string {
	switch v {
	case 0:
		return "ok"
	case 1:
		return "warning"
	case 2:
		return "failure"
	default:
		return "unknown"
	}
}
