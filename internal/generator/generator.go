// Package generator turns bundle modules into the ordered list of splits to be written.
package generator

import (
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/babystarcloud/bundletool/cmd/config"
	"github.com/babystarcloud/bundletool/internal/residuals"
	"github.com/babystarcloud/bundletool/internal/splits"
)

// GenerateAll generates the splits of all modules concurrently. The result lists the splits of each
// module in module order and is verified to carry unique split ids.
func GenerateAll(log *zap.Logger, b *config.Bundle, modules []splits.Module) ([]*splits.Split, error) {
	known := make([]string, 0, len(modules))
	for _, m := range modules {
		known = append(known, m.Name)
	}

	results := make([][]*splits.Split, len(modules))
	var g errgroup.Group
	for i := range modules {
		i := i
		g.Go(func() error {
			ss, err := Generate(log, b, modules[i], known)
			if err != nil {
				return err
			}
			results[i] = ss
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*splits.Split
	for _, ss := range results {
		all = append(all, ss...)
	}
	if err := residuals.CheckSplitIDs(log, all); err != nil {
		return nil, err
	}
	return all, nil
}

// Generate produces the splits of a single module. Targeting is first removed for the configured
// dimensions, the module is then split along each configured dimension in order, the stripped
// dimensions are collapsed and finally the manifests are rewritten. The master split comes first.
//
// Every targeting removal and splitting step is verified to partition its input. The known module names are used to prune
// manifest components that refer to modules outside of the bundle.
func Generate(log *zap.Logger, b *config.Bundle, m splits.Module, known []string) ([]*splits.Split, error) {
	log = log.With(zap.String("module", m.Name))
	log.Debug("Generating splits.", zap.Int("entries", len(m.Entries)), zap.Int("directories", len(m.Directories)))

	seed, err := splits.ForModule(m)
	if err != nil {
		log.Error("Failed to seed the master split of the module.", zap.Error(err))
		return nil, err
	}

	for _, st := range b.Removed {
		merged, err := st.RemoveAssetsTargeting(seed)
		if err != nil {
			log.Error("Failed to remove targeting.", zap.Stringer("dimension", st.Dimension()), zap.Error(err))
			return nil, err
		}
		if err = residuals.CheckPartition(log, st.Dimension(), seed, []*splits.Split{merged}); err != nil {
			return nil, err
		}
		seed = merged
	}

	current := []*splits.Split{seed}
	for _, sp := range b.Splitters {
		var next []*splits.Split
		for _, s := range current {
			out, err := sp.Split(s)
			if err != nil {
				log.Error("Failed to split.", zap.Stringer("dimension", sp.Dimension()), zap.Stringer("split", s), zap.Error(err))
				return nil, err
			}
			if err = residuals.CheckPartition(log, sp.Dimension(), s, out); err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		log.Debug("Split along dimension.", zap.Stringer("dimension", sp.Dimension()), zap.Int("splits", len(next)))
		current = next
	}

	for i, s := range current {
		for _, st := range b.Strippers {
			if s, err = st.Stripper.ApplySuffixStripping(s, st.Config); err != nil {
				log.Error("Failed to apply suffix stripping.", zap.Stringer("dimension", st.Stripper.Dimension()), zap.Error(err))
				return nil, err
			}
		}
		current[i] = s
	}

	out := make([]*splits.Split, 0, len(current))
	for _, s := range current {
		f, err := finalise(log, b, s, known)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	log.Info("Generated splits.", zap.Int("splits", len(out)))
	return out, nil
}

func finalise(log *zap.Logger, b *config.Bundle, s *splits.Split, known []string) (*splits.Split, error) {
	s = s.WriteSplitIDInManifest(s.SplitID())
	if b.RemoveSplitName {
		s = s.RemoveSplitName()
	}
	if b.RemoveUnknownSplitComponents {
		s = s.RemoveUnknownSplitComponents(known)
	}
	if b.StampSource != "" {
		stamped, err := s.WriteSourceStampInManifest(b.StampSource, b.StampType)
		if err != nil {
			log.Error("Failed to write the source stamp.", zap.String("source", b.StampSource), zap.Error(err))
			return nil, err
		}
		s = stamped
	}
	log.Debug("Finalised split.", zap.Stringer("split", s))
	return s, nil
}
