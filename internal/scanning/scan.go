package scanning

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/logging"
	"github.com/anstrom/portsweep/internal/metrics"
)

// Failure reasons reported to the metrics recorder.
const (
	ReasonLaunch     = "launch"
	ReasonExitStatus = "exit_status"
	ReasonParse      = "parse"
)

// Orchestrator scans targets one at a time and merges their results.
type Orchestrator struct {
	config   ScanConfig
	nmap     *NmapInfo
	executor Executor
	metrics  metrics.Recorder
	logger   *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExecutor replaces the process runner.
func WithExecutor(executor Executor) Option {
	return func(o *Orchestrator) { o.executor = executor }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = recorder }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator for one run with the given
// configuration. info must come from CheckNmap.
func NewOrchestrator(config ScanConfig, info *NmapInfo, opts ...Option) *Orchestrator {
	if info == nil {
		info = &NmapInfo{Path: DefaultBinary()}
	}
	o := &Orchestrator{
		config:   config,
		nmap:     info,
		executor: NewProcessRunner(os.Stdout),
		metrics:  metrics.Noop{},
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run scans every target in order. A failing target is logged and counted
// and the run moves on; only cancellation of ctx aborts the run, in which
// case a CodeCanceled error is returned and the partial results are dropped.
func (o *Orchestrator) Run(ctx context.Context, targets []string) (ResultSet, RunMetadata, error) {
	meta := RunMetadata{
		RunID:       uuid.NewString(),
		NmapVersion: o.nmap.VersionLine,
	}
	logger := o.logger.WithRunID(meta.RunID)

	logger.Info("Starting scan run",
		"targets", len(targets),
		"profile", describeProfile(o.config.Profile),
		"ports", o.config.PortSpec(),
		"service_version", o.config.ServiceVersion,
		"os_detection", o.config.OSDetection,
		"script_scan", o.config.ScriptScan,
		"aggressive", o.config.Aggressive)

	agg := NewAggregator()
	meta.StartTime = time.Now()

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, meta, errors.ErrCanceled(err)
		}

		agg.Attempt()
		o.metrics.TargetAttempted()
		logger.Progress(i+1, len(targets), target)

		started := time.Now()
		found, err := o.scanTarget(ctx, logger, target)
		o.metrics.ObserveTargetDuration(time.Since(started))

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, meta, errors.ErrCanceled(ctxErr)
		}
		if err != nil {
			continue
		}

		if len(found) == 0 {
			logger.NoOpenPorts(target)
		}
		for _, addr := range found.Addresses() {
			logger.HostFound(target, addr, len(found[addr].Ports))
		}
		agg.Merge(found)
	}

	meta.EndTime = time.Now()
	meta.TargetsAttempted = agg.Attempted()

	results := agg.Results()
	o.metrics.SetResults(len(results), results.TotalOpenPorts())

	logger.Info("Scan run completed",
		"targets_attempted", meta.TargetsAttempted,
		"alive_hosts", len(results),
		"open_ports", results.TotalOpenPorts(),
		"duration", fmt.Sprintf("%.2fs", meta.Duration().Seconds()))

	return results, meta, nil
}

// scanTarget runs nmap against one target and parses its XML report. The
// temporary report file is removed on every path.
func (o *Orchestrator) scanTarget(ctx context.Context, logger *logging.Logger, target string) (ResultSet, error) {
	cmd, err := BuildCommand(ctx, o.config, o.nmap.Path, target)
	if err != nil {
		return o.fail(ctx, logger, target, ReasonLaunch,
			errors.WrapScanErrorWithTarget(errors.CodeScanFailed, "failed to prepare nmap", target, err))
	}
	defer cmd.Cleanup()

	logger.WithTarget(target).Info("Running nmap", "command", cmd.String(), "xml_output", cmd.OutputFile)

	code, err := o.executor.Execute(ctx, cmd)
	if err != nil {
		return o.fail(ctx, logger, target, ReasonLaunch,
			errors.WrapScanErrorWithTarget(errors.CodeScanFailed, "failed to launch nmap", target, err))
	}
	if code != 0 {
		return o.fail(ctx, logger, target, ReasonExitStatus,
			errors.NewScanErrorWithTarget(errors.CodeScanFailed,
				fmt.Sprintf("nmap exited with status %d", code), target).WithContext("exit_code", code))
	}

	found, err := ParseFile(cmd.OutputFile)
	if err != nil {
		return o.fail(ctx, logger, target, ReasonParse,
			errors.WrapScanErrorWithTarget(errors.CodeParseFailed, "failed to parse nmap XML output", target, err))
	}
	return found, nil
}

func (o *Orchestrator) fail(
	ctx context.Context, logger *logging.Logger, target, reason string, err error,
) (ResultSet, error) {
	if ctx.Err() == nil {
		logger.TargetFailed(target, reason, err)
		o.metrics.TargetFailed(reason)
	}
	return nil, err
}
