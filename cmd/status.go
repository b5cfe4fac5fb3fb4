package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/problem"
	"github.com/cwbudde/genyal/internal/server"
)

var (
	serverURL     string
	submitProblem string
	submitFlags   problem.Settings
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a job to the server",
	Args:  cobra.NoArgs,
	RunE:  runSubmit,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending or running job on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, submitCmd, cancelCmd} {
		cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
		rootCmd.AddCommand(cmd)
	}

	submitCmd.Flags().StringVarP(&submitProblem, "problem", "p", "word", "Problem to solve")
	submitCmd.Flags().IntVar(&submitFlags.Population, "population", 0, "Population size")
	submitCmd.Flags().IntVar(&submitFlags.MaxGenerations, "generations", 0, "Maximum number of generations")
	submitCmd.Flags().Float64Var(&submitFlags.MutationRate, "mutation-rate", 0, "Probability of keeping a gene during mutation")
	submitCmd.Flags().Float64Var(&submitFlags.EliteFraction, "elite", 0, "Fraction of the population carried over unchanged")
	submitCmd.Flags().Int64Var(&submitFlags.Seed, "seed", 0, "Random seed")
	submitCmd.Flags().StringVar(&submitFlags.Target, "target", "", "Problem target")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, serverURL)
	}
	return getJobStatus(out, serverURL, args[0])
}

// checkResponse turns a non-2xx response into an error carrying the body.
func checkResponse(resp *http.Response, jobID string) error {
	if resp.StatusCode == http.StatusNotFound && jobID != "" {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func listJobs(out io.Writer, baseURL string) error {
	resp, err := http.Get(baseURL + "/api/v1/jobs")
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, ""); err != nil {
		return err
	}

	var jobs []server.Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Problem: %s\n", job.Config.Problem)
		if job.Generation > 0 {
			fmt.Fprintf(out, "  Generation: %d\n", job.Generation)
			fmt.Fprintf(out, "  Best: %q (fitness %g)\n", job.Best, job.Fitness)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, baseURL, jobID string) error {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/status", baseURL, jobID))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, jobID); err != nil {
		return err
	}

	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	s := status.Settings
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Problem: %s\n", status.Problem)
	if s.Target != "" {
		fmt.Fprintf(out, "  Target: %s\n", s.Target)
	}
	fmt.Fprintf(out, "  Population: %d\n", s.Population)
	fmt.Fprintf(out, "  Genome Length: %d\n", s.GenomeLength)
	fmt.Fprintf(out, "  Mutation Rate: %g\n", s.MutationRate)
	fmt.Fprintf(out, "  Elite Fraction: %g\n", s.EliteFraction)
	fmt.Fprintf(out, "  Max Generations: %d\n", s.MaxGenerations)
	fmt.Fprintf(out, "  Seed: %d\n", s.Seed)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Generation: %d\n", status.Generation)
	fmt.Fprintf(out, "  Best: %q\n", status.Best)
	fmt.Fprintf(out, "  Fitness: %g (mean %g)\n", status.Fitness, status.MeanFitness)
	fmt.Fprintf(out, "  Solved: %v\n", status.Solved)
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.GPS > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f generations/sec\n", status.GPS)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(server.JobRequest{
		Problem:  submitProblem,
		Settings: flagOverrides(cmd.Flags().Changed, submitFlags),
	})
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, ""); err != nil {
		return err
	}

	var job server.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s (%s)\n", job.ID, job.Config.Problem)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, serverURL+"/api/v1/jobs/"+jobID, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, jobID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for job %s\n", jobID)
	return nil
}
