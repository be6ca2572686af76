package log

import (
	"context"
	"log/slog"

	"github.com/zoobzio/capitan"

	"github.com/goliatone/go-fmschema/pkg/pipeline"
)

// HookPipeline logs pipeline lifecycle signals through logger. Hooks are
// process wide; call it once from main. Failures are only traced here; the
// caller reports them once it has the run output.
func HookPipeline(logger *slog.Logger) {
	logger = WithComponent(logger, "pipeline")

	capitan.Hook(pipeline.DocumentStarted, func(ctx context.Context, e *capitan.Event) {
		doc, _ := pipeline.KeyDocument.From(e)
		logger.DebugContext(ctx, "document started", "document", doc)
	})

	capitan.Hook(pipeline.StageCompleted, func(ctx context.Context, e *capitan.Event) {
		doc, _ := pipeline.KeyDocument.From(e)
		stage, _ := pipeline.KeyStage.From(e)
		kinds, _ := pipeline.KeyKinds.From(e)
		logger.DebugContext(ctx, "stage completed", "document", doc, "stage", stage, "kinds", kinds)
	})

	capitan.Hook(pipeline.DocumentCompleted, func(ctx context.Context, e *capitan.Event) {
		doc, _ := pipeline.KeyDocument.From(e)
		took, _ := pipeline.KeyDuration.From(e)
		logger.DebugContext(ctx, "document completed", "document", doc, "duration", took)
	})

	capitan.Hook(pipeline.DocumentFailed, func(ctx context.Context, e *capitan.Event) {
		doc, _ := pipeline.KeyDocument.From(e)
		stage, _ := pipeline.KeyStage.From(e)
		logger.DebugContext(ctx, "stage failed", "document", doc, "stage", stage)
	})

	capitan.Hook(pipeline.BatchMerged, func(ctx context.Context, e *capitan.Event) {
		runID, _ := pipeline.KeyRunID.From(e)
		count, _ := pipeline.KeyDocuments.From(e)
		logger.InfoContext(ctx, "batch merged", "run_id", runID, "documents", count)
	})
}
