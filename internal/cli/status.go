package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeenalAppSphere/sprintd/pkg/client"
)

func newStatusCmd() *cobra.Command {
	var (
		addr   string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check a running sprintd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []client.Option
			if apiKey != "" {
				opts = append(opts, client.WithAPIKey(apiKey))
			}
			c := client.New(normalizeBaseURL(addr), opts...)
			health, err := c.Health(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sprintd not reachable at %s: %v\n", addr, err)
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sprintd running at %s (status %v, sse subscribers %v)\n",
				addr, health["status"], health["sse_subscribers"])
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8876", "Server base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authenticated servers")

	return cmd
}

// normalizeBaseURL lets --addr take the serve form (":8876") as well as a
// full URL.
func normalizeBaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
