// Command healthprobe asks a service's gRPC health endpoint whether it is
// serving. It exits 0 when it is, 1 when it is not and 2 on usage or dial
// errors, so it can back a container HEALTHCHECK.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		addr    = flag.String("addr", getenv("HEALTH_ADDR", "localhost:9090"), "grpc address of the service")
		service = flag.String("service", getenv("HEALTH_SERVICE", ""), "service name; empty asks about the whole server")
		timeout = flag.Duration("timeout", 3*time.Second, "rpc timeout")
		useTLS  = flag.Bool("tls", false, "dial with TLS using the system roots")
	)
	flag.Parse()

	var opts grpcx.DialOptions
	if *useTLS {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	conn, err := grpcx.Dial(*addr, opts)
	if err != nil {
		fatal(err.Error())
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(resp.GetStatus().String())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
