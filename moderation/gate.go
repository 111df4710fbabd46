package moderation

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 16

// Filtered is the outcome of one moderation pass.
type Filtered struct {
	Eligible []domain.Identity
	Skipped  int // blocked in either direction
	Failed   int // directory lookup failed, excluded to stay safe
}

type verdict int

const (
	allowed verdict = iota
	blocked
	failed
)

// Gate removes the sender and anyone on either side of a block with the sender.
// Nothing is cached across passes, so a new block applies to the next message.
type Gate struct {
	directory   contract.Directory
	log         *slog.Logger
	concurrency int
}

func NewGate(directory contract.Directory, log *slog.Logger, concurrency int) *Gate {
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	return &Gate{directory: directory, log: log, concurrency: concurrency}
}

// EligibleRecipients keeps the order of candidates. A lookup error excludes only
// the candidate concerned.
func (g *Gate) EligibleRecipients(ctx context.Context, sender domain.Identity,
	candidates []domain.Identity) Filtered {
	// Per-pass dedup of lookups
	unique := make(map[domain.Identity]verdict, len(candidates))
	for _, c := range candidates {
		if c != sender {
			unique[c] = allowed
		}
	}

	ids := make([]domain.Identity, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	verdicts := make([]verdict, len(ids))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, id := range ids {
		eg.Go(func() error {
			verdicts[i] = g.check(ctx, sender, id)
			return nil
		})
	}
	_ = eg.Wait()

	for i, id := range ids {
		unique[id] = verdicts[i]
	}

	var res Filtered
	for _, c := range candidates {
		if c == sender {
			continue
		}
		switch unique[c] {
		case allowed:
			res.Eligible = append(res.Eligible, c)
		case blocked:
			res.Skipped++
		case failed:
			res.Failed++
		}
	}
	return res
}

func (g *Gate) check(ctx context.Context, sender, candidate domain.Identity) verdict {
	byCandidate, err := g.directory.IsBlocked(ctx, candidate, sender)
	if err != nil {
		g.log.Warn("Block lookup failed, recipient excluded",
			"sender", sender, "recipient", candidate, "error", err)
		return failed
	}
	if byCandidate {
		return blocked
	}

	bySender, err := g.directory.IsBlocked(ctx, sender, candidate)
	if err != nil {
		g.log.Warn("Block lookup failed, recipient excluded",
			"sender", sender, "recipient", candidate, "error", err)
		return failed
	}
	if bySender {
		return blocked
	}
	return allowed
}
