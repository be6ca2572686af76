package pipeline

import "github.com/zoobzio/capitan"

// Pipeline lifecycle signals.
var (
	DocumentStarted = capitan.NewSignal(
		"fmschema.pipeline.document.started",
		"Document processing started",
	)

	DocumentCompleted = capitan.NewSignal(
		"fmschema.pipeline.document.completed",
		"Document completed every stage",
	)

	DocumentFailed = capitan.NewSignal(
		"fmschema.pipeline.document.failed",
		"Document failed and produced no result",
	)

	StageCompleted = capitan.NewSignal(
		"fmschema.pipeline.stage.completed",
		"Stage bucket applied to a document",
	)

	BatchMerged = capitan.NewSignal(
		"fmschema.pipeline.batch.merged",
		"Batch documents merged into a single record",
	)
)

// Field keys for pipeline events.
var (
	// KeyDocument is the source label of the document being processed.
	KeyDocument = capitan.NewStringKey("document")

	// KeyStage is the stage number of a bucket.
	KeyStage = capitan.NewIntKey("stage")

	// KeyKinds lists the directive kinds in a bucket.
	KeyKinds = capitan.NewStringKey("kinds")

	KeyError = capitan.NewStringKey("error")

	// KeyRunID correlates events from one ProcessBatch call.
	KeyRunID = capitan.NewStringKey("run_id")

	KeyDocuments = capitan.NewIntKey("documents")

	KeyDuration = capitan.NewDurationKey("duration")
)
