package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/service"
	"github.com/cutlistopt/engine/pkg/task"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Args:  cobra.NoArgs,
	Short: "Submit a calculation request and wait for its result",
	Long: `Loads a calculation request YAML file, submits it to an in-process
Service, and polls getTaskStatus until the task reaches a terminal state.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().String("request", "", "path to calculation request YAML file")
	submitCmd.Flags().Duration("poll-interval", time.Second, "interval between status polls")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	if requestPath == "" {
		return fmt.Errorf("--request flag is required")
	}
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")

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

	logger.Info("task submitted", "task_id", taskID)
	fmt.Printf("taskId: %s\n", taskID)

	for {
		status, err := svc.GetTaskStatus(taskID)
		if err != nil {
			return fmt.Errorf("getTaskStatus failed: %w", err)
		}
		fmt.Printf("status: %s percentageDone: %.1f initPercentage: %.1f\n", status.Status, status.PercentageDone, status.InitPercentage)
		if isTerminalStatus(status.Status) {
			printSolution(status)
			return nil
		}
		time.Sleep(pollInterval)
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case "FINISHED", "STOPPED", "TERMINATED", "ERROR":
		return true
	default:
		return false
	}
}
