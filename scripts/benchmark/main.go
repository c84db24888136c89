package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL    = flag.String("api-url", "http://localhost:5000", "propsearch API base URL")
	apiKey    = flag.String("api-key", "", "API key for authenticated requests")
	runs      = flag.Int("runs", 3, "Number of runs per search")
	output    = flag.String("output", "benchmark-results.json", "JSON output file path")
	casesFile = flag.String("cases", "", "Optional JSON file with [{label, body}] search cases")
)

type searchCase struct {
	Label string            `json:"label"`
	Body  map[string]string `json:"body"`
}

// Built-in cases, one per site adapter.
var defaultCases = []searchCase{
	{"urban-by-name", map[string]string{
		"property_type": "urban", "party_type": "name",
		"sro": "Janakpuri", "party_name": "Kumar", "reg_year": "2021",
	}},
	{"urban-by-address", map[string]string{
		"property_type": "urban", "party_type": "address",
		"sro": "Janakpuri", "address": "Vikas Puri", "reg_year": "2021",
	}},
	{"rural", map[string]string{
		"property_type": "rural",
		"district": "North West", "division": "Narela", "village": "Bakoli",
		"rectangle": "12", "khasra": "7",
	}},
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		TableData [][]string `json:"table_data"`
		Text      *string    `json:"text"`
		Image     *string    `json:"image"`
		Message   string     `json:"message"`
	} `json:"data"`
	Error string `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	HTTPStatus int    `json:"http_status"`
	Outcome    string `json:"outcome"` // table, text, no_records, error
	Rows       int    `json:"rows,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	HasImage   bool   `json:"has_image"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type caseResult struct {
	Label     string      `json:"label"`
	Runs      []runResult `json:"runs"`
	AvgMs     float64     `json:"avg_ms,omitempty"`
	Successes int         `json:"successes"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerCase int          `json:"runs_per_case"`
	Results     []caseResult `json:"results"`
}

func main() {
	flag.Parse()

	cases := defaultCases
	if *casesFile != "" {
		loaded, err := loadCases(*casesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cases = loaded
	}

	fmt.Println("=== propsearch benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/case: %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerCase: *runs,
	}

	// Each search holds a browser for tens of seconds; runs are sequential.
	for _, c := range cases {
		fmt.Printf("Benchmarking [%s] ...\n", c.Label)
		cr := caseResult{Label: c.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := runSearch(c.Body, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %s\n", rr.TotalMs, rr.Outcome)
			} else {
				fmt.Printf("FAILED (%dms): %s\n", rr.TotalMs, rr.Error)
			}
			cr.Runs = append(cr.Runs, rr)
		}

		cr.AvgMs, cr.Successes = averageSuccess(cr.Runs)
		report.Results = append(report.Results, cr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func loadCases(path string) ([]searchCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cases []searchCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases in %s", path)
	}
	return cases, nil
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func runSearch(body map[string]string, run int) runResult {
	rr := runResult{Run: run, Outcome: "error"}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/property-search", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 180 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.TotalMs = time.Since(start).Milliseconds()
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr searchResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.HTTPStatus = resp.StatusCode
	if decodeErr != nil {
		rr.Error = fmt.Sprintf("decode error: %v", decodeErr)
		return rr
	}

	rr.Success = sr.Success
	rr.Error = sr.Error
	if d := sr.Data; d != nil {
		rr.HasImage = d.Image != nil
		switch {
		case d.Message != "":
			rr.Outcome = "no_records"
		case d.Text != nil:
			rr.Outcome = "text"
			rr.TextLength = len(*d.Text)
		default:
			rr.Outcome = "table"
			rr.Rows = len(d.TableData)
		}
	}
	return rr
}

func averageSuccess(runs []runResult) (float64, int) {
	var total int64
	var n int
	for _, r := range runs {
		if r.Success {
			total += r.TotalMs
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(total) / float64(n), n
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Case\tAvg Latency\tSuccess\tOutcome\n")
	fmt.Fprintf(w, "────\t───────────\t───────\t───────\n")

	for _, r := range results {
		if r.Successes == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t0/%d\t%s\n", r.Label, len(r.Runs), dominantOutcome(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%d/%d\t%s\n",
			r.Label,
			int64(r.AvgMs),
			r.Successes, len(r.Runs),
			dominantOutcome(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

// dominantOutcome returns the most frequent outcome, ties broken by name.
func dominantOutcome(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		counts[r.Outcome]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestCount := "-", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
