// Package main implements the Lambda handler for scheduled analysis runs.
// EventBridge scheduler rules invoke it once per day and once per week; the
// rule's detail selects the trigger kind.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"lorekeeper-backend/application/services"
	"lorekeeper-backend/infrastructure/config"
	"lorekeeper-backend/infrastructure/di"
)

// scheduleDetail is the payload configured on the EventBridge scheduler rule.
type scheduleDetail struct {
	Trigger string `json:"trigger"`
}

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	log.Println("Analysis scheduler initialized")
}

// HandleRequest processes one scheduled invocation from EventBridge.
func HandleRequest(ctx context.Context, event events.CloudWatchEvent) error {
	detail := scheduleDetail{Trigger: services.TriggerDaily}
	if len(event.Detail) > 0 {
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			container.Logger.Warn("unreadable schedule detail, assuming daily",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if detail.Trigger != services.TriggerDaily && detail.Trigger != services.TriggerWeekly {
		container.Logger.Warn("unknown trigger, assuming daily",
			zap.String("trigger", detail.Trigger))
		detail.Trigger = services.TriggerDaily
	}

	report, err := container.Scheduler.RunAll(ctx, detail.Trigger)
	if err != nil {
		container.Logger.Error("scheduled run failed to start",
			zap.String("trigger", detail.Trigger), zap.Error(err))
		return err
	}

	container.Logger.Info("scheduled run finished",
		zap.String("trigger", detail.Trigger),
		zap.Int("users", report.Users),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
