// Package appctx holds the process-wide collaborators (template cache,
// recordings directory, storage handle) that would otherwise be hidden
// module-level singletons, and injects them explicitly into session
// workers and HTTP handlers (spec.md §9 Design Notes).
package appctx

import (
	"github.com/motionlab/dtwcapture/internal/config"
	"github.com/motionlab/dtwcapture/pkg/capture"
)

// ResultSink is the persistence collaborator a session finalizes into.
// Satisfied by *store.Store; kept as an interface here so appctx does
// not import the storage package's SQLite dependency into every
// consumer.
type ResultSink interface {
	Save(testID, patientID, testName string, model capture.Model, useZ bool, fps float64, r capture.FinalizeResult) error
}

// AppContext bundles the process-wide collaborators a session worker or
// HTTP handler needs.
type AppContext struct {
	Config        *config.Config
	Templates     *capture.TemplateLibrary
	Sink          ResultSink
	RecordingsDir string
}

// New builds an AppContext from a loaded configuration and the storage
// handle the caller has already opened.
func New(cfg *config.Config, sink ResultSink) *AppContext {
	return &AppContext{
		Config:        cfg,
		Templates:     capture.NewTemplateLibrary(cfg.Storage.TemplatesDir),
		Sink:          sink,
		RecordingsDir: cfg.Storage.RecordingsDir,
	}
}

// Band resolves the configured default Sakoe-Chiba band setting to a
// *capture.Band (nil for unconstrained).
func (a *AppContext) Band() *capture.Band {
	radius, auto, unconstrained := a.Config.DTW.Resolve()
	if unconstrained {
		return nil
	}
	return &capture.Band{Radius: radius, Auto: auto}
}
