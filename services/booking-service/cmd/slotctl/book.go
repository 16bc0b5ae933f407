package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type bookConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	HostID         string        `mapstructure:"host_id"`
	ServiceID      string        `mapstructure:"service_id"`
	Start          string        `mapstructure:"start"`
	GuestName      string        `mapstructure:"guest_name"`
	GuestEmail     string        `mapstructure:"guest_email"`
	Notes          string        `mapstructure:"notes"`
	IdempotencyKey string        `mapstructure:"idempotency_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func newBookCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SLOTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot through the public booking endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg bookConfig
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("decode flags: %w", err)
			}
			return runBook(cmd.Context(), http.DefaultClient, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("base-url", "http://localhost:8083", "booking service base url")
	f.String("host-id", "", "host the service belongs to")
	f.String("service-id", "", "service to book")
	f.String("start", "", "RFC3339 start of the slot")
	f.String("guest-name", "", "guest name")
	f.String("guest-email", "", "guest email")
	f.String("notes", "", "optional notes")
	f.String("idempotency-key", "", "Idempotency-Key header; generated when empty")
	f.Duration("timeout", 10*time.Second, "request timeout")

	for _, name := range []string{"base-url", "host-id", "service-id", "start", "guest-name", "guest-email", "notes", "idempotency-key", "timeout"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}
	return cmd
}

func runBook(ctx context.Context, client *http.Client, cfg bookConfig, out io.Writer) error {
	if strings.TrimSpace(cfg.HostID) == "" || strings.TrimSpace(cfg.ServiceID) == "" {
		return fmt.Errorf("host-id and service-id are required")
	}
	if _, err := time.Parse(time.RFC3339, cfg.Start); err != nil {
		return fmt.Errorf("start must be RFC3339: %w", err)
	}
	if cfg.IdempotencyKey == "" {
		cfg.IdempotencyKey = uuid.NewString()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"host_id":     cfg.HostID,
		"service_id":  cfg.ServiceID,
		"start_time":  cfg.Start,
		"guest_name":  cfg.GuestName,
		"guest_email": cfg.GuestEmail,
		"notes":       cfg.Notes,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/api/v1/public/book", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", cfg.IdempotencyKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "status=%d idempotency_key=%s replayed=%t\n", resp.StatusCode, cfg.IdempotencyKey,
		resp.Header.Get("Idempotent-Replayed") == "true")
	fmt.Fprintln(out, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("booking failed with status %d", resp.StatusCode)
	}
	return nil
}
