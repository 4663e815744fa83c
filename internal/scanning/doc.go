// Package scanning drives nmap against a list of targets and turns its XML
// reports into a merged result set.
//
// # Overview
//
// A run is built around three pieces:
//
//   - ScanConfig: the immutable options shared by every invocation (profile,
//     port specification and detection toggles)
//   - Orchestrator: walks the targets sequentially, one nmap process at a time
//   - ResultSet: live hosts with open ports, keyed by address
//
// # Per-target flow
//
// For each target BuildCommand reserves a temporary XML file and assembles the
// argument vector with github.com/Ullaakut/nmap/v3. An Executor runs it;
// ProcessRunner echoes nmap's standard output indented to the terminal. A zero
// exit status leads to ParseFile, and the hosts found are merged into the run
// with Merge. A host reported by several targets keeps the record of the last
// one.
//
// A target that fails to launch, exits non-zero or produces unparsable XML is
// logged and skipped. It still counts towards RunMetadata.TargetsAttempted.
//
// # Usage
//
//	info, err := scanning.CheckNmap(ctx, "nmap", 5*time.Second)
//	if err != nil {
//		return err
//	}
//
//	cfg := scanning.ScanConfig{Profile: scanning.ProfileDefault, ServiceVersion: true}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
//	results, meta, err := scanning.NewOrchestrator(cfg, info).Run(ctx, targets)
//
// # Cancellation
//
// Cancelling the context kills the running nmap process and Run returns an
// error with code CANCELED. Partial results are not returned.
package scanning
