package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qlp-hq/production-scheduler/internal/config"
	"github.com/qlp-hq/production-scheduler/internal/events"
	"github.com/qlp-hq/production-scheduler/internal/logger"
	"github.com/qlp-hq/production-scheduler/internal/metrics"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
	"github.com/qlp-hq/production-scheduler/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single capacity-aware scheduling pass over a catalog",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runOutput is the CLI's on-disk/stdout result shape: the §4.4 result
// plus the §4.5 metrics every caller asks for in the same breath.
type runOutput struct {
	RunID        string                      `json:"run_id"`
	Assignments  map[string]model.Assignment `json:"assignments"`
	Failed       []string                    `json:"failed"`
	Warnings     []string                    `json:"warnings"`
	Makespan     int                         `json:"makespan_days"`
	Products     []productMetric             `json:"products"`
	PriorityList []model.PriorityListEntry   `json:"priority_list"`
}

type productMetric struct {
	ProductID    string  `json:"product_id"`
	LatenessDays float64 `json:"lateness_days"`
	OnTime       bool    `json:"on_time"`
	Failed       bool    `json:"failed"`
}

func runRun(cmd *cobra.Command, args []string) error {
	runCfg := config.LoadRunConfig()

	pipe, err := loadPipeline(runCfg.CatalogPath)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(context.Background())
	defer bus.Close()

	db, err := store.New(config.GetPostgresDSN())
	if err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	defer db.Close()
	runs := store.NewRunRepository(db)

	publishRunEvent(bus, pipe.runID, events.EventRunStarted, map[string]interface{}{
		"policy": "csv-fixed",
	})

	sched := scheduler.New(pipe.g, pipe.calc, pipe.built.Products, pipe.cat.MechanicTeams, pipe.cat.QualityTeams, pipe.schedCfg)
	result := sched.Run()

	out := buildRunOutput(pipe, result)

	eventType := events.EventRunCompleted
	if len(result.Failed) > 0 {
		eventType = events.EventRunFailed
	}
	publishRunEvent(bus, pipe.runID, eventType, map[string]interface{}{
		"makespan_days": out.Makespan,
		"failed_count":  len(result.Failed),
	})

	logger.LogRunMetrics(pipe.runID, len(pipe.g.Instances), out.Makespan, len(result.Failed))

	if err := persistRun(runs, pipe.runID, "csv-fixed", pipe.schedCfg.Epoch, out.Makespan, result); err != nil {
		logger.Logger.Warn("failed to persist run record", zap.Error(err))
	}

	return writeOutput(runCfg.OutputPath, out)
}

func buildRunOutput(pipe *pipeline, result *scheduler.Result) runOutput {
	out := runOutput{
		RunID:       pipe.runID,
		Assignments: make(map[string]model.Assignment, len(result.Assignments)),
		Warnings:    result.Warnings,
		Makespan:    metrics.Makespan(result, pipe.built.Products),
	}
	out.PriorityList = priority.BuildPriorityList(pipe.calc, result.Assignments)
	for k, a := range result.Assignments {
		out.Assignments[k.String()] = a
	}
	for k := range result.Failed {
		out.Failed = append(out.Failed, k.String())
	}
	for _, p := range pipe.built.Products {
		lateness := metrics.Lateness(result, p)
		out.Products = append(out.Products, productMetric{
			ProductID:    p.ID,
			LatenessDays: lateness,
			OnTime:       metrics.OnTime(lateness),
			Failed:       metrics.ProductHasFailure(result, p.ID),
		})
	}
	return out
}

func publishRunEvent(bus *events.EventBus, runID string, eventType events.EventType, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = bus.Publish(context.Background(), events.Event{
		ID:        runID + ":" + string(eventType),
		Type:      eventType,
		RunID:     runID,
		Source:    "cmd/scheduler",
		Timestamp: time.Now(),
		Payload:   body,
	})
}

func persistRun(runs *store.RunRepository, runID, policy string, epoch time.Time, makespan int, result *scheduler.Result) error {
	assignments := make([]model.Assignment, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		assignments = append(assignments, a)
	}
	failed := make([]model.Key, 0, len(result.Failed))
	for k := range result.Failed {
		failed = append(failed, k)
	}
	return runs.Create(&store.RunRecord{
		ID:             runID,
		Policy:         policy,
		Epoch:          epoch,
		MakespanDays:   makespan,
		UnscheduledCnt: len(result.Failed),
		Assignments:    assignments,
		Failed:         failed,
		CreatedAt:      time.Now(),
	})
}

func writeOutput(path string, out runOutput) error {
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if path == "" {
		fmt.Println(string(body))
		return nil
	}
	return os.WriteFile(path, body, 0644)
}
