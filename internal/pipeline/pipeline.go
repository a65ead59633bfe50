// Package pipeline wires the decode stages together: container decryption,
// packet framing, semantic decoding, and battle reconstruction, run once
// over one replay's bytes (spec §5: forward-only, non-restartable).
package pipeline

import (
	"fmt"

	"github.com/landaire/wows-replay-go/internal/analyzer"
	"github.com/landaire/wows-replay-go/internal/battle"
	"github.com/landaire/wows-replay-go/internal/container"
	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/resource"
	"github.com/landaire/wows-replay-go/internal/schema"
	"github.com/landaire/wows-replay-go/internal/semantic"
)

// Options configures one Decode run. Registry is required; everything else
// is optional.
type Options struct {
	Registry *schema.Registry

	// Build overrides the schema build to decode against. Empty means
	// derive it from the container metadata's ClientVersionFromExe.
	Build schema.Build

	// Analyzers observe every framed packet alongside the battle
	// controller, in registration order (spec §4.8).
	Analyzers []analyzer.Analyzer

	// Resources is the optional game-parameter/localization/schema
	// capability. Decode does not read it and Result does not carry it. A
	// nil Resources is valid; the core never requires it (spec §6's
	// Non-goals).
	Resources resource.ResourceLoader
}

// Result is everything one Decode run produces.
type Result struct {
	Meta           container.Metadata
	Report         battle.BattleReport
	UnknownMethods []string
}

// Decode runs the full pipeline over one replay file's raw bytes.
func Decode(data []byte, opts Options) (*Result, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("pipeline: Options.Registry is required")
	}

	c, err := container.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: container: %w", err)
	}

	frames, frameErr := packet.Frame(c.Frames)
	// A truncated trailing frame is non-fatal: decode everything that was
	// successfully framed (spec §4.3/§7).
	if frameErr != nil && frameErr != packet.ErrTruncated {
		return nil, fmt.Errorf("pipeline: framer: %w", frameErr)
	}
	packets := packet.Decode(frames)

	build := opts.Build
	if build == "" {
		build = schema.Build(c.Meta.ClientVersionFromExe)
	}
	decoder, err := semantic.NewDecoder(opts.Registry, build)
	if err != nil {
		return nil, fmt.Errorf("pipeline: schema: %w", err)
	}

	controller := battle.NewController()
	mux := analyzer.NewMultiplexer(opts.Analyzers...)

	for _, p := range packets {
		mux.Process(p)

		switch p.Variant {
		case packet.VariantEntityCreate:
			ec := p.EntityCreate
			// decoder.Process for EntityCreate only updates its
			// entityID->type tracking and never errors; do that first
			// so EntityTypeName resolves for this and every later
			// packet addressing the same entity (spec §4.6).
			decoder.Process(p)
			typeName, _ := decoder.EntityTypeName(ec.EntityID)
			controller.ProcessCreate(p.Clock, ec.EntityID, typeName, ec.Pos)
			continue
		case packet.VariantEntityLeave:
			controller.ProcessLeave(p.Clock, p.EntityLeave.EntityID)
		}

		ev, err := decoder.Process(p)
		if err != nil {
			// A single packet's decode failure does not abort the run
			// (spec §7's codec-level errors are non-fatal to the
			// pipeline as a whole); it surfaces as a Warning instead.
			controller.RecordDecodeError(p.Clock, err)
			continue
		}
		controller.Process(ev)
	}

	mux.Finish()

	report := controller.BuildReport()
	return &Result{
		Meta:           c.Meta,
		Report:         report,
		UnknownMethods: decoder.UnknownMethodsSeen(),
	}, nil
}
