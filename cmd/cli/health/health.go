package health

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/crucial707/api-bootstrap/cmd/cli/config"
	"github.com/crucial707/api-bootstrap/cmd/cli/output"
	"github.com/crucial707/api-bootstrap/cmd/cli/root"
)

var tableHeaders = []string{"Status", "Message", "HTTP", "Latency"}

func init() {
	root.GetRoot().AddCommand(healthCmd(), watchCmd())
}

func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", config.APIURL(), "Base URL of the API (env API_URL)")
	cmd.Flags().Duration("timeout", 5*time.Second, "Per-request timeout")
}

func probeTarget(cmd *cobra.Command) (string, *http.Client) {
	url, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return url, &http.Client{Timeout: timeout}
}

func row(res Result) []interface{} {
	return []interface{}{res.Status, res.Message, res.Code, res.Latency.Round(time.Millisecond)}
}

// ==========================
// health: one probe
// ==========================
func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the API liveness endpoint once",
		Long:  "Call GET /health and exit non-zero unless the API answers 200 with status OK.",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, client := probeTarget(cmd)
			res, err := Probe(cmd.Context(), client, url)
			if res.Code == 0 {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), string(res.Raw))
			} else {
				output.RenderTable(cmd.OutOrStdout(), tableHeaders, [][]interface{}{row(res)})
			}
			return err
		},
	}
	addProbeFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the raw JSON response")
	return cmd
}

// ==========================
// watch: repeated probes on a cron schedule
// ==========================
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe the API liveness endpoint on a schedule",
		Long: `Probe GET /health on a cron schedule (standard 5-field spec or descriptors
such as "@every 30s") and print one line per probe. Stops after --count probes,
or on interrupt when --count is 0. Exits non-zero if any probe failed.`,
		RunE: runWatch,
	}
	addProbeFlags(cmd)
	cmd.Flags().String("schedule", "@every 30s", "Cron schedule for probes")
	cmd.Flags().Int("count", 0, "Stop after this many probes (0 = until interrupted)")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	schedule, _ := cmd.Flags().GetString("schedule")
	count, _ := cmd.Flags().GetInt("count")
	url, client := probeTarget(cmd)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var (
		mu       sync.Mutex
		probes   int
		failures int
		lastErr  error // most recent failure
	)
	done := make(chan struct{})

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		res, err := Probe(ctx, client, url)

		mu.Lock()
		defer mu.Unlock()
		if count > 0 && probes >= count {
			return
		}
		probes++
		if err != nil {
			failures++
			lastErr = err
			fmt.Fprintf(out, "%s  DOWN  %v\n", time.Now().Format(time.RFC3339), err)
		} else {
			fmt.Fprintf(out, "%s  %s  %d  %s\n", time.Now().Format(time.RFC3339), res.Status, res.Code, res.Latency.Round(time.Millisecond))
		}
		if count > 0 && probes == count {
			close(done)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c.Start()
	select {
	case <-done:
	case <-ctx.Done():
	}
	<-c.Stop().Done()

	mu.Lock()
	defer mu.Unlock()
	output.RenderTable(out, []string{"Probes", "OK", "Failed"}, [][]interface{}{{probes, probes - failures, failures}})
	if failures > 0 {
		return fmt.Errorf("%w: %d of %d probes failed, last error: %v", ErrUnhealthy, failures, probes, lastErr)
	}
	return nil
}
