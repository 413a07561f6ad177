package cli

import (
	"github.com/spf13/cobra"
)

type configView struct {
	BaseURL                string  `json:"base_url"`
	JobID                  string  `json:"job_id,omitempty"`
	DelaySeconds           int     `json:"delay_seconds"`
	PollingIntervalSeconds int     `json:"polling_interval_seconds"`
	TimeoutSeconds         int     `json:"timeout_seconds"`
	RequestTimeoutSeconds  float64 `json:"request_timeout_seconds"`
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [JOB_ID]",
		Short: "Show the effective client settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}

			if a.jsonOutput() {
				return a.render(configView{
					BaseURL:                a.cfg.BaseURL,
					JobID:                  id,
					DelaySeconds:           a.cfg.CompletionDelaySeconds,
					PollingIntervalSeconds: a.cfg.PollingIntervalSeconds,
					TimeoutSeconds:         a.cfg.TimeoutSeconds,
					RequestTimeoutSeconds:  seconds(a.cfg.RequestTimeout),
				})
			}
			a.display.Attributes(a.attributes(id))
			return nil
		},
	}
}
