package device

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkwizard/vkwizard/gpu"
)

// DiscreteBonus is added to the score of discrete GPUs.
const DiscreteBonus = 1000

// Score ranks suitable devices. Higher is better.
func Score(d *Descriptor) uint64 {
	score := uint64(d.Limits.MaxImageDimension2D)
	if d.Type == gpu.DeviceTypeDiscreteGPU {
		score += DiscreteBonus
	}
	return score
}

type Candidate struct {
	*Descriptor
	Score uint64
}

// Rejection records why a device was excluded. Descriptor is nil when the
// device could not be queried at all.
type Rejection struct {
	Index      int
	Descriptor *Descriptor
	Reasons    []error
}

// Ranking is the outcome of one pass over the instance's devices.
// Candidates are ordered best first; equal scores keep enumeration order.
type Ranking struct {
	Candidates []Candidate
	Rejected   []Rejection
}

func (r Ranking) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

type Selector struct {
	requirement Requirement
	log         logrus.FieldLogger
}

func NewSelector(requirement Requirement, log logrus.FieldLogger) *Selector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Selector{requirement: requirement, log: log}
}

func (s *Selector) Requirement() Requirement { return s.requirement }

// Rank describes every device of inst, filters by the requirement and
// orders the survivors by Score.
func (s *Selector) Rank(inst gpu.Instance) (Ranking, error) {
	devices, err := inst.PhysicalDevices()
	if err != nil {
		return Ranking{}, errors.Wrap(err, "enumerate physical devices")
	}

	var ranking Ranking
	for i, pd := range devices {
		desc, err := Describe(pd)
		if err != nil {
			s.log.WithError(err).WithField("index", i).Warn("skipping physical device")
			ranking.Rejected = append(ranking.Rejected, Rejection{Index: i, Reasons: []error{err}})
			continue
		}
		log := s.log.WithFields(logrus.Fields{"index": i, "device": desc.Name, "type": desc.Type})
		if unmet := s.requirement.Check(desc); len(unmet) > 0 {
			log.WithField("unmet", len(unmet)).Debug("physical device unsuitable")
			ranking.Rejected = append(ranking.Rejected, Rejection{Index: i, Descriptor: desc, Reasons: unmet})
			continue
		}
		score := Score(desc)
		log.WithField("score", score).Debug("physical device suitable")
		ranking.Candidates = append(ranking.Candidates, Candidate{Descriptor: desc, Score: score})
	}

	sort.SliceStable(ranking.Candidates, func(i, j int) bool {
		return ranking.Candidates[i].Score > ranking.Candidates[j].Score
	})
	return ranking, nil
}

// Select returns the best suitable device of inst.
func (s *Selector) Select(inst gpu.Instance) (*Descriptor, error) {
	ranking, err := s.Rank(inst)
	if err != nil {
		return nil, err
	}
	best, ok := ranking.Best()
	if !ok {
		err := errors.Newf("%d physical devices, none suitable", len(ranking.Rejected))
		for _, r := range ranking.Rejected {
			name := "unknown"
			if r.Descriptor != nil {
				name = r.Descriptor.Name
			}
			for _, reason := range r.Reasons {
				err = errors.WithDetailf(err, "device %d (%s): %v", r.Index, name, reason)
			}
		}
		return nil, errors.Mark(err, gpu.ErrNoSuitableDevice)
	}

	s.log.WithFields(logrus.Fields{
		"device": best.Name,
		"type":   best.Type,
		"api":    best.APIVersion,
		"score":  best.Score,
	}).Info("selected physical device")
	return best.Descriptor, nil
}
