package analyzer

import (
	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/semantic"
)

// SurveyStats accumulates coverage counters for one replay (grounded on
// original_source's analyzer/survey.rs SurveyStats).
type SurveyStats struct {
	TotalPackets   int
	UnknownPackets int // packet.VariantUnknown — no frame-kind decoder matched
	DecodeErrors   int // semantic decode failures (schema mismatch, short read)
}

// Survey counts packet and decode coverage without producing a report of
// its own — useful for the `survey` CLI subcommand's schema-coverage
// output (spec §6).
type Survey struct {
	decoder *semantic.Decoder
	stats   SurveyStats
}

// NewSurvey returns a Survey analyzer decoding packets with decoder.
func NewSurvey(decoder *semantic.Decoder) *Survey {
	return &Survey{decoder: decoder}
}

func (s *Survey) Process(p packet.Packet) {
	s.stats.TotalPackets++
	if p.Variant == packet.VariantUnknown {
		s.stats.UnknownPackets++
		return
	}
	if _, err := s.decoder.Process(p); err != nil {
		s.stats.DecodeErrors++
	}
}

func (s *Survey) Finish() {}

// Stats returns the accumulated counters and every "type#index" the
// underlying decoder never resolved, for the `survey` subcommand's
// coverage report.
func (s *Survey) Stats() (SurveyStats, []string) {
	return s.stats, s.decoder.UnknownMethodsSeen()
}
