package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/duebook/internal/adapter/http/dto"
	"github.com/iho/duebook/internal/domain"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// client talks to the duebook HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		asJSON  bool
	)

	rootCmd := &cobra.Command{
		Use:           "duebook-cli",
		Short:         "duebook CLI tool",
		Long:          `A command line interface for browsing months and settling obligations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the duebook API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON responses")

	api := func() *client {
		return &client{
			baseURL: strings.TrimRight(baseURL, "/"),
			http:    &http.Client{Timeout: timeout},
		}
	}

	rootCmd.AddCommand(
		occurrencesCmd(api, &asJSON),
		settleCmd(api, &asJSON),
		unsettleCmd(api, &asJSON),
		obligationsCmd(api, &asJSON),
	)

	return rootCmd
}

func occurrencesCmd(api func() *client, asJSON *bool) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "Show the occurrences of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/occurrences"
			if month != "" {
				if _, err := domain.ParseYearMonth(month); err != nil {
					return err
				}
				path += "?month=" + url.QueryEscape(month)
			}

			var resp dto.MonthResponse
			raw, err := api().do(http.MethodGet, path, nil, &resp)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}
			printMonth(cmd.OutOrStdout(), &resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")

	return cmd
}

func settleCmd(api func() *client, asJSON *bool) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "settle <occurrence-id>",
		Short: "Confirm the settlement of an occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if date != "" {
				d, err := domain.ParseDate(date)
				if err != nil {
					return err
				}
				body = dto.SettlementRequest{SettledDate: &d}
			}

			var row dto.ObligationResponse
			raw, err := api().do(http.MethodPost, settlementPath(args[0]), body, &row)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settled %s as %s on %s\n", args[0], row.ID, deref(row.SettledDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Settlement date as YYYY-MM-DD (default: today)")

	return cmd
}

func unsettleCmd(api func() *client, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "unsettle <occurrence-id>",
		Short: "Reverse the settlement of a stored occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var row dto.ObligationResponse
			raw, err := api().do(http.MethodDelete, settlementPath(args[0]), nil, &row)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unsettled %s\n", row.ID)
			return nil
		},
	}
}

func obligationsCmd(api func() *client, asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obligations",
		Short: "Obligation operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored obligation rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListObligationsResponse
			raw, err := api().do(http.MethodGet, "/api/v1/obligations", nil, &resp)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}
			printObligations(cmd.OutOrStdout(), resp.Obligations)
			return nil
		},
	})

	return cmd
}

func settlementPath(id string) string {
	return "/api/v1/occurrences/" + url.PathEscape(id) + "/settlement"
}

// do sends body as JSON and decodes a 2xx response into out. The raw body
// is returned for --json.
func (c *client) do(method, path string, body, out any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return nil, fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return nil, fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return raw, nil
}

func printMonth(w io.Writer, m *dto.MonthResponse) {
	fmt.Fprintf(w, "Month %s\n\n", m.Month)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tKIND\tDESCRIPTION\tAMOUNT\tSTATUS\tID")
	for _, occ := range m.Occurrences {
		row := occ.Obligation
		description := row.Description
		if occ.Installments > 1 {
			description = fmt.Sprintf("%s (%d/%d)", description, occ.Installment, occ.Installments)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			occ.DueDate, row.Kind, truncate(description, 32), row.Amount.StringFixed(domain.AmountScale), status(occ), occ.ID)
	}
	tw.Flush()

	s := m.Summary
	fmt.Fprintf(w, "\nincome %s  expense %s  net %s  settled %d/%d\n",
		s.Income.StringFixed(domain.AmountScale), s.Expense.StringFixed(domain.AmountScale),
		s.Net.StringFixed(domain.AmountScale), s.Settled, s.Occurrences)

	for _, a := range m.Anomalies {
		fmt.Fprintf(w, "skipped %s: %s\n", a.RowID, a.Reason)
	}
}

func printObligations(w io.Writer, rows []*dto.ObligationResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCHEDULED\tKIND\tDESCRIPTION\tAMOUNT\tFIXED\tSETTLED")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			row.ID, row.ScheduledDate, row.Kind, truncate(row.Description, 32),
			row.Amount.StringFixed(domain.AmountScale), row.IsFixed, deref(row.SettledDate))
	}
	tw.Flush()
}

func status(occ *dto.OccurrenceResponse) string {
	switch {
	case occ.Obligation.Settled:
		return "settled"
	case occ.Virtual:
		return "projected"
	default:
		return "pending"
	}
}

func printJSON(w io.Writer, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
