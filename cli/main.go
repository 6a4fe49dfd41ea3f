package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	Version   = "dev"
)

type stats struct {
	Rate10 uint64 `json:"rate_10s"`
	Rate30 uint64 `json:"rate_30s"`
	Rate60 uint64 `json:"rate_60s"`
	Total  uint64 `json:"total"`
}

type rateSample struct {
	At     time.Time `json:"at"`
	Rate10 uint64    `json:"rate_10s"`
	Rate30 uint64    `json:"rate_30s"`
	Rate60 uint64    `json:"rate_60s"`
	Total  uint64    `json:"total"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "typespeed",
		Short: "Typespeed - live keystroke rate",
		Long:  "Query the typespeed daemon for the current keystroke rate",
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8090", "Daemon URL")

	rootCmd.AddCommand(
		statusCmd(),
		watchCmd(),
		historyCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current keystroke rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := fetchStats()
			if err != nil {
				return err
			}

			fmt.Printf("Typespeed Status\n")
			fmt.Printf("================\n\n")
			fmt.Printf("Last 10s  (keys/min):  %d\n", st.Rate10)
			fmt.Printf("Last 30s  (keys/min):  %d\n", st.Rate30)
			fmt.Printf("Last 60s  (keys/min):  %d\n", st.Rate60)
			fmt.Printf("Lifetime keystrokes:   %d\n", st.Total)

			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the raw status line once per second",
		RunE: func(cmd *cobra.Command, args []string) error {
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				line, err := fetchLine()
				if err != nil {
					return err
				}
				fmt.Print(line)

				select {
				case <-interrupt:
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted rate samples, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := fetchHistory(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "AT\t10S\t30S\t60S\tTOTAL")
			fmt.Fprintln(w, "--\t---\t---\t---\t-----")
			for _, s := range samples {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
					s.At.Local().Format(time.RFC3339), s.Rate10, s.Rate30, s.Rate60, s.Total)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum samples to fetch")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("typespeed %s\n", Version)
		},
	}
}

func fetchStats() (*stats, error) {
	body, err := fetch("/v1/stats")
	if err != nil {
		return nil, err
	}
	var st stats
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	return &st, nil
}

func fetchLine() (string, error) {
	body, err := fetch("/typespeed")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func fetchHistory(limit int) ([]rateSample, error) {
	body, err := fetch(fmt.Sprintf("/v1/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var samples []rateSample
	if err := json.Unmarshal(body, &samples); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return samples, nil
}

func fetch(path string) ([]byte, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %d for %s", resp.StatusCode, path)
	}
	return body, nil
}
