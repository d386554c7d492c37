package api

import (
	"context"

	"github.com/wanderpress/wanderpress/app/aggregator"
	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/jobqueue"
)

type PipelineRunner interface {
	Run(ctx context.Context) aggregator.RunSummary
}

var _ PipelineRunner = (*aggregator.Pipeline)(nil)

type Handler struct {
	feedRepo    database.FeedRepository
	clusterRepo database.ClusterRepository
	pipeline    PipelineRunner
	jobs        *jobqueue.Queue
}
