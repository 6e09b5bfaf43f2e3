package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/response"
	"github.com/cutlistopt/engine/pkg/service"
	"github.com/cutlistopt/engine/pkg/task"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Args:  cobra.NoArgs,
	Short: "Submit a calculation request and print its immediate status",
	Long: `Loads a calculation request YAML file, submits it to an in-process
Service, and prints a single getTaskStatus snapshot without waiting for
completion — demonstrating that getTaskStatus is a non-blocking read.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("request", "", "path to calculation request YAML file")
}

func runStatus(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	if requestPath == "" {
		return fmt.Errorf("--request flag is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	req, clientID, err := loadRequest(requestPath)
	if err != nil {
		return fmt.Errorf("failed to load request: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	svc := service.New(cfg, logger, m)
	defer svc.Shutdown()

	watchdogCtx, cancelWatchdog := context.WithCancel(context.Background())
	defer cancelWatchdog()
	go svc.Run(watchdogCtx)

	code, taskID, err := svc.SubmitTask(req, task.ClientInfo{ID: clientID})
	if err != nil {
		return fmt.Errorf("submitTask failed with status %s: %w", code, err)
	}
	if code != service.StatusOK {
		return fmt.Errorf("submitTask rejected the request with status %s", code)
	}

	status, err := svc.GetTaskStatus(taskID)
	if err != nil {
		return fmt.Errorf("getTaskStatus failed: %w", err)
	}
	fmt.Printf("taskId: %s status: %s percentageDone: %.1f initPercentage: %.1f\n",
		taskID, status.Status, status.PercentageDone, status.InitPercentage)
	return nil
}

// printSolution prints a short text summary of a finished task's cached
// response, called once submit's polling loop observes a terminal status.
func printSolution(status *service.TaskStatus) {
	if status.Solution == nil {
		fmt.Println("no solution available")
		return
	}
	printCalculationResponse(status.Solution)
}

func printCalculationResponse(r *response.CalculationResponse) {
	fmt.Printf("elapsedTime: %s solutionElapsedTime: %s\n", r.ElapsedTime, r.SolutionElapsedTime)
	fmt.Printf("totalUsedArea: %.2f totalWastedArea: %.2f totalUsedAreaRatio: %.4f\n", r.TotalUsedArea, r.TotalWastedArea, r.TotalUsedAreaRatio)
	fmt.Printf("totalNbrCuts: %d totalCutLength: %.2f\n", r.TotalNbrCuts, r.TotalCutLength)
	fmt.Printf("mosaics: %d noFitPanels: %d\n", len(r.Mosaics), len(r.NoFitPanels))
	for i, m := range r.Mosaics {
		fmt.Printf("  mosaic[%d] material=%q usedArea=%.2f wastedArea=%.2f finalPanels=%d cuts=%d\n",
			i, m.Material, m.UsedArea, m.WastedArea, m.NbrFinalPanels, len(m.Cuts))
	}
}
