package extractor

import (
	"iter"

	"livecheck/internal/shared/logger"
	"livecheck/streampool/model"
)

// Dedup merges the candidate sequences in the given order, keeping only the first
// occurrence of each endpoint. Index is assigned in discovery order.
func Dedup(seqs ...iter.Seq[model.Candidate]) []model.Candidate {
	seen := make(map[string]struct{})
	out := make([]model.Candidate, 0)
	for _, seq := range seqs {
		for c := range seq {
			if _, exists := seen[c.Endpoint]; exists {
				continue
			}
			seen[c.Endpoint] = struct{}{}
			c.Index = len(out)
			out = append(out, c)
		}
	}
	return out
}

// ExtractAll 对所有来源执行 Extract 并去重, 同时记录抓取失败和空来源。
func ExtractAll(sources []model.SourceDescriptor, schemes []string) []model.Candidate {
	l := logger.WithComponent("StreamPool/Extractor")

	seqs := make([]iter.Seq[model.Candidate], 0, len(sources))
	for _, src := range sources {
		if src.Err != nil {
			l.Warn().Err(src.Err).Str("source", src.Address).Msg("Source fetch failed, contributing no candidates.")
			continue
		}
		count := 0
		for range Extract(src, schemes) {
			count++
		}
		if count == 0 {
			l.Warn().Str("source", src.Address).Msg("Source yielded no candidates.")
			continue
		}
		l.Debug().Str("source", src.Address).Int("count", count).Msg("Candidates extracted.")
		seqs = append(seqs, Extract(src, schemes))
	}

	candidates := Dedup(seqs...)
	l.Info().Int("sources", len(sources)).Int("unique", len(candidates)).Msg("Extraction finished.")
	return candidates
}
