package app

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// EndpointInfo is an endpoint taking part in a run.
type EndpointInfo struct {
	Name   string
	Kind   string
	Status string
}

// Summary records a run and prints it once the run is over.
type Summary struct {
	serviceName string
	version     string
	runID       string
	mode        string
	source      EndpointInfo
	stages      []string
	sinks       []EndpointInfo
	duration    time.Duration
	err         error
}

// NewSummary returns an empty summary for a run of mode.
func NewSummary(serviceName, version, runID, mode string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		runID:       runID,
		mode:        mode,
	}
}

// TrackSource records the source endpoint.
func (s *Summary) TrackSource(name, kind, status string) {
	s.source = EndpointInfo{Name: name, Kind: kind, Status: status}
}

// TrackStages records the stage or action names in chain order.
func (s *Summary) TrackStages(names []string) {
	s.stages = names
}

// TrackSink records a sink endpoint.
func (s *Summary) TrackSink(name, kind, status string) {
	s.sinks = append(s.sinks, EndpointInfo{Name: name, Kind: kind, Status: status})
}

// Finish records how the run ended.
func (s *Summary) Finish(d time.Duration, err error) {
	s.duration = d
	s.err = err
}

// Write prints the summary as a tree.
func (s *Summary) Write(w io.Writer) {
	if w == nil {
		return
	}
	outcome := "finished"
	if s.err != nil {
		outcome = "failed"
	}
	fmt.Fprintf(w, "\n%s %s %s %s in %.2fs (run %s)\n",
		s.serviceName, s.version, s.mode, outcome, s.duration.Seconds(), s.runID)

	if s.source.Name != "" {
		fmt.Fprintf(w, "   source\n   └── %s %s [%s]\n", statusIcon(s.source.Status), s.source.Name, s.source.Kind)
	}
	if len(s.stages) > 0 {
		fmt.Fprintf(w, "   chain\n   └── %s\n", strings.Join(s.stages, " → "))
	}
	if len(s.sinks) > 0 {
		fmt.Fprintf(w, "   sinks\n")
		for i, sk := range s.sinks {
			prefix := "├──"
			if i == len(s.sinks)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(w, "   %s %s %s [%s]\n", prefix, statusIcon(sk.Status), sk.Name, sk.Kind)
		}
	}
	if s.err != nil {
		fmt.Fprintf(w, "   error: %v\n", s.err)
	}
	fmt.Fprintln(w)
}

func statusIcon(status string) string {
	switch status {
	case "connected", "open", "done":
		return "✅"
	case "cancelled":
		return "⏸️"
	case "error", "failed":
		return "❌"
	default:
		return "⚠️"
	}
}
