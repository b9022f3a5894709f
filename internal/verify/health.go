package verify

import (
	"context"
	"time"

	"brio/devkit/internal/errors"
	"brio/devkit/internal/logging"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CheckHealth asks the grpc.health.v1 service on addr for the overall status and
// returns an error of kind HealthFailed unless it is SERVING.
func CheckHealth(ctx context.Context, addr string, timeout time.Duration) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return errors.Wrap(errors.HealthFailed, "create health client for "+addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return errors.Wrap(errors.HealthFailed, "health check "+addr, err)
	}
	if st := resp.GetStatus(); st != healthpb.HealthCheckResponse_SERVING {
		return errors.New(errors.HealthFailed, "health status "+st.String())
	}
	return nil
}

func (r *runner) health(ctx context.Context) StepResult {
	res := StepResult{Name: StepHealth}
	pterm.Fprintln(r.out, "Checking gRPC health on "+r.opts.HealthAddr+"...")

	stop := r.opts.OnAwait("Awaiting health status...")
	err := CheckHealth(ctx, r.opts.HealthAddr, r.opts.Timeout)
	stop()

	if err != nil {
		res.Kind = errors.KindOf(err)
		res.Detail = logging.Mask(err.Error())
		logging.PresentHealthError(r.out, r.opts.HealthAddr, err)
		return res
	}
	res.Passed = true
	pterm.Fprintln(r.out, "✅ Kernel Health: SERVING.")
	return res
}
