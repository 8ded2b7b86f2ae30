package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"trace-forwarder/pkg/config"
	"trace-forwarder/pkg/telemetry"
	"trace-forwarder/pkg/utils"
)

// CLI prints periodic status lines from the telemetry aggregator
type CLI struct {
	telemetry telemetry.TelemetryReader
	config    *config.Config
	logger    *log.Logger

	lastSnapshot telemetry.Snapshot
	printed      bool
}

func NewCLI(telemetryReader telemetry.TelemetryReader, cfg *config.Config, logger *log.Logger) *CLI {
	return &CLI{
		telemetry: telemetryReader,
		config:    cfg,
		logger:    logger,
	}
}

// Run prints status every StatusInterval until ctx ends. A non-positive
// interval disables periodic output.
func (c *CLI) Run(ctx context.Context) error {
	c.logger.Printf("Forwarding stdin (partition %s)", c.config.PartitionKey)
	if c.config.StatusInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(c.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.printStatus()
		}
	}
}

// PrintSummary logs the final counters unconditionally.
func (c *CLI) PrintSummary() {
	s := c.telemetry.Snapshot()
	c.logger.Printf("Summary - %s", statusLine(s))
	if line := breakdown(s.DroppedByReason); line != "" {
		c.logger.Printf("Dropped by reason: %s", line)
	}
	if line := breakdown(s.ErrorsByType); line != "" {
		c.logger.Printf("Errors by type: %s", line)
	}
}

func (c *CLI) printStatus() {
	snapshot := c.telemetry.Snapshot()
	if c.shouldPrintStatus(snapshot) {
		c.logger.Printf("Status - %s", statusLine(snapshot))
		if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal && len(snapshot.RecentErrors) > 0 {
			c.logger.Printf("Last error: %s", snapshot.RecentErrors[len(snapshot.RecentErrors)-1])
		}
		c.printed = true
	}
	c.lastSnapshot = snapshot
}

func (c *CLI) shouldPrintStatus(snapshot telemetry.Snapshot) bool {
	if !c.printed {
		return true
	}
	if snapshot.WritesAccepted != c.lastSnapshot.WritesAccepted ||
		snapshot.EnvelopesSent != c.lastSnapshot.EnvelopesSent ||
		snapshot.EnvelopesDropped != c.lastSnapshot.EnvelopesDropped {
		return true
	}
	if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal {
		return true
	}
	return snapshot.State != c.lastSnapshot.State
}

func statusLine(s telemetry.Snapshot) string {
	return fmt.Sprintf("state=%s accepted=%s sent=%s dropped=%s failed=%s bytes=%s rate=%.1f/s p95=%.1fms",
		s.State,
		utils.FormatNumber(s.WritesAccepted),
		utils.FormatNumber(s.EnvelopesSent),
		utils.FormatNumber(s.EnvelopesDropped),
		utils.FormatNumber(s.SendFailures),
		utils.FormatBytes(s.BytesSent),
		s.SendsPerSecond,
		s.P95LatencyMs)
}

func breakdown(counts map[string]uint64) string {
	parts := make([]string, 0, len(counts))
	for _, kc := range utils.SortByCount(counts) {
		parts = append(parts, kc.Key+"="+utils.FormatNumber(kc.Count))
	}
	return strings.Join(parts, ", ")
}
