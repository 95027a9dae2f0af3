package main

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/squigglekit/pod5go/pod5"
)

// ReadEnv is the environment for filter expression evaluation. It exposes
// one read's metadata under short field names:
//
//	read.number, read.samples, read.chunks, read.median_before
//	pore.channel, pore.well, pore.type
//	end_reason.name, end_reason.forced
//	run.id, run.sample_rate, run.flow_cell, run.sample
type ReadEnv struct {
	Read struct {
		ID           string  `expr:"id"`
		Number       uint32  `expr:"number"`
		Start        uint64  `expr:"start"`
		Samples      uint64  `expr:"samples"`
		Chunks       int     `expr:"chunks"`
		MedianBefore float64 `expr:"median_before"`
	} `expr:"read"`

	Pore struct {
		Channel uint16 `expr:"channel"`
		Well    uint8  `expr:"well"`
		Type    string `expr:"type"`
	} `expr:"pore"`

	EndReason struct {
		Name   string `expr:"name"`
		Forced bool   `expr:"forced"`
	} `expr:"end_reason"`

	Run struct {
		ID         string `expr:"id"`
		SampleRate uint32 `expr:"sample_rate"`
		FlowCell   string `expr:"flow_cell"`
		Sample     string `expr:"sample"`
	} `expr:"run"`
}

// compileFilter compiles a filter expression against ReadEnv.
func compileFilter(filterStr string) (*vm.Program, error) {
	program, err := expr.Compile(filterStr, expr.Env(ReadEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", filterStr, err)
	}
	return program, nil
}

// readToEnv builds the expression environment for one read. Aggregates are
// computed from the signal index without decoding any samples.
func readToEnv(ctx context.Context, read *pod5.ReadRow) (ReadEnv, error) {
	var env ReadEnv

	id, err := read.ReadID()
	if err != nil {
		return env, err
	}
	env.Read.ID = id.String()

	if env.Read.Number, err = read.ReadNumber(); err != nil {
		return env, err
	}
	if env.Read.Start, err = read.StartSample(); err != nil {
		return env, err
	}
	if env.Read.MedianBefore, err = read.MedianBefore(); err != nil {
		return env, err
	}

	rows, err := read.SignalRows(ctx)
	if err != nil {
		return env, err
	}
	env.Read.Chunks = len(rows)
	for _, row := range rows {
		env.Read.Samples += uint64(row.SampleCount)
	}

	pore, err := read.Pore()
	if err != nil {
		return env, err
	}
	env.Pore.Channel = pore.Channel
	env.Pore.Well = pore.Well
	env.Pore.Type = pore.PoreType

	reason, err := read.EndReason()
	if err != nil {
		return env, err
	}
	env.EndReason.Name = reason.Name
	env.EndReason.Forced = reason.Forced

	info, err := read.RunInfo()
	if err != nil {
		return env, err
	}
	env.Run.ID = info.AcquisitionID
	env.Run.SampleRate = info.SampleRate
	env.Run.FlowCell = info.FlowCellID
	env.Run.Sample = info.SampleID

	return env, nil
}

// matchEnv evaluates a compiled filter against one read's environment.
func matchEnv(program *vm.Program, env ReadEnv) (bool, error) {
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating filter: %w", err)
	}
	b, ok := result.(bool)
	return ok && b, nil
}
