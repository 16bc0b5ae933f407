package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/grpcserver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

type healthConfig struct {
	Addr    string        `mapstructure:"addr"`
	Service string        `mapstructure:"service"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func newHealthCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SLOTCTL")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health service; exits non-zero unless SERVING",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg healthConfig
			if err := v.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("decode flags: %w", err)
			}
			return runHealth(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("addr", "localhost:9090", "booking service gRPC address")
	f.String("service", grpcserver.ServiceName, `service name to check ("" for the whole server)`)
	f.Duration("timeout", 5*time.Second, "dial and call timeout")
	for _, name := range []string{"addr", "service", "timeout"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runHealth(ctx context.Context, cfg healthConfig, out io.Writer) error {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	conn, err := grpcx.Dial(ctx, cfg.Addr, grpcx.DialOptions{Timeout: cfg.Timeout})
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer conn.Close()

	requestID := grpcx.NewRequestID()
	var header metadata.MD
	resp, err := healthpb.NewHealthClient(conn).Check(grpcx.WithRequestID(ctx, requestID),
		&healthpb.HealthCheckRequest{Service: cfg.Service}, grpc.Header(&header))
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	echoed := requestID
	if ids := header.Get(grpcx.RequestIDMetadataKey); len(ids) > 0 {
		echoed = ids[0]
	}
	fmt.Fprintf(out, "addr=%s service=%q status=%s request_id=%s\n", cfg.Addr, cfg.Service, resp.GetStatus(), echoed)
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", cfg.Addr, resp.GetStatus())
	}
	return nil
}
