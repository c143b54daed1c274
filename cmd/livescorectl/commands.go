package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/soccer-livescore/external/toralarm"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

type rootOptions struct {
	baseURL  string
	language string
	timeout  time.Duration
	asJSON   bool
}

func newRootCommand(out io.Writer, logger *logging.Logger) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "livescorectl",
		Short:         "Inspect the toralarm catalog and drive a running livescore service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("TORALARM_BASE_URL", toralarm.DefaultBaseURL), "toralarm API base URL")
	root.PersistentFlags().StringVar(&opts.language, "language", envOr("LIVESCORE_LANGUAGE", usecase.DefaultLanguage), "provider language tag")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newCompetitionsCommand(opts, logger),
		newPlanCommand(opts, logger),
		newConfigCommand(opts),
	)
	return root
}

func (o *rootOptions) client(logger *logging.Logger) *toralarm.Client {
	return toralarm.NewClient(toralarm.ClientConfig{
		BaseURL: o.baseURL,
		Timeout: o.timeout,
		Logger:  logger,
	})
}

func newCompetitionsCommand(opts *rootOptions, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "competitions",
		Short: "List every competition in the provider catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			items, err := opts.client(logger).FetchCompetitions(ctx, usecase.NormalizeLanguage(opts.language))
			if err != nil {
				return fmt.Errorf("fetch competitions: %w", err)
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTABLE\tSCORERS")
			for _, item := range items {
				fmt.Fprintf(tw, "%d\t%s\t%t\t%t\n", item.ID, item.Name, item.HasTable, item.HasScorers)
			}
			return tw.Flush()
		},
	}
}

type planView struct {
	CompetitionID int64                  `json:"competition_id"`
	Decision      usecase.WindowDecision `json:"decision"`
	DelayMs       int64                  `json:"delay_ms"`
	NextPollAt    *time.Time             `json:"next_poll_at,omitempty"`
	Clamped       bool                   `json:"clamped,omitempty"`
	SeasonOver    bool                   `json:"season_over,omitempty"`
}

func newPlanCommand(opts *rootOptions, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <competition-id>",
		Short: "Fetch the current round and show when standings would be polled next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			competitionID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || competitionID <= 0 {
				return fmt.Errorf("competition id must be a positive integer, got %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			doc, err := opts.client(logger).FetchRound(ctx, competitionID, 0, usecase.NormalizeLanguage(opts.language))
			if err != nil {
				return fmt.Errorf("fetch round: %w", err)
			}

			view := newPlanView(competitionID, usecase.PlanStandings(doc, time.Now()))
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return writePlan(cmd.OutOrStdout(), view)
		},
	}
}

func newPlanView(competitionID int64, plan usecase.PollPlan) planView {
	view := planView{
		CompetitionID: competitionID,
		Decision:      plan.Decision,
		DelayMs:       plan.Delay.Milliseconds(),
		Clamped:       plan.Clamped,
		SeasonOver:    plan.Stop,
	}
	if !plan.Stop {
		at := plan.NextPollAt.UTC()
		view.NextPollAt = &at
	}
	return view
}

func writePlan(w io.Writer, view planView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "competition\t%d\n", view.CompetitionID)
	fmt.Fprintf(tw, "decision\t%s\n", view.Decision)
	if view.SeasonOver {
		fmt.Fprintln(tw, "next poll\tnone (season complete)")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "delay\t%s\n", (time.Duration(view.DelayMs) * time.Millisecond).String())
	fmt.Fprintf(tw, "next poll\t%s\n", view.NextPollAt.Format(time.RFC3339))
	if view.Clamped {
		fmt.Fprintln(tw, "clamped\ttrue")
	}
	return tw.Flush()
}

type pushOptions struct {
	server    string
	token     string
	leagues   []int64
	standings bool
	details   bool
	tables    bool
	scorers   bool
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	push := &pushOptions{}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the display configuration of a running service",
	}

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Send a display configuration to the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := push.body(opts.language)
			if err != nil {
				return err
			}
			status, resp, err := postConfig(push.server, push.token, body, opts.timeout)
			if err != nil {
				return err
			}
			if status != fasthttp.StatusOK {
				return fmt.Errorf("service answered %d: %s", status, strings.TrimSpace(string(resp)))
			}
			_, err = cmd.OutOrStdout().Write(append(resp, '\n'))
			return err
		},
	}
	pushCmd.Flags().StringVar(&push.server, "server", envOr("LIVESCORE_SERVER", "http://localhost:8080"), "service base URL")
	pushCmd.Flags().StringVar(&push.token, "token", os.Getenv("APP_ADMIN_TOKEN"), "admin token")
	pushCmd.Flags().Int64SliceVar(&push.leagues, "leagues", nil, "competition ids, comma separated")
	pushCmd.Flags().BoolVar(&push.standings, "standings", true, "show standings")
	pushCmd.Flags().BoolVar(&push.details, "details", false, "enrich standings with match details")
	pushCmd.Flags().BoolVar(&push.tables, "tables", false, "show tables")
	pushCmd.Flags().BoolVar(&push.scorers, "scorers", false, "show scorers")

	configCmd.AddCommand(pushCmd)
	return configCmd
}

func (p *pushOptions) body(language string) ([]byte, error) {
	leagues := p.leagues
	if leagues == nil {
		leagues = []int64{}
	}
	body, err := sonic.Marshal(usecase.DisplaySettings{
		Language:      language,
		ShowStandings: p.standings,
		ShowDetails:   p.details,
		ShowTables:    p.tables,
		ShowScorers:   p.scorers,
		Leagues:       leagues,
	})
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	return body, nil
}

func postConfig(server, token string, body []byte, timeout time.Duration) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(strings.TrimSpace(server), "/") + "/v1/config")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	req.SetBody(body)

	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, fmt.Errorf("post configuration: %w", err)
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

func writeJSON(w io.Writer, value any) error {
	encoded, err := sonic.ConfigDefault.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(encoded, '\n'))
	return err
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
