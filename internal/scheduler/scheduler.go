// Package scheduler implements the Capacity-Aware Scheduler (§4.4): a
// deterministic forward pass over the dependency graph that assigns
// every ready instance the earliest team/shift slot its precedence
// floor, calendar and capacity constraints allow.
package scheduler

import (
	"container/heap"
	"sort"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/calendar"
	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
)

// maxMinuteSteps bounds the per-attempt forward search for a feasible
// slot (§4.4's "bounded search (5,000 minute-steps)").
const maxMinuteSteps = 5000

// maxRetries is how many times a node may be requeued with a priority
// penalty before it is marked permanently failed.
const maxRetries = 3

// penaltyStep is the priority penalty added to a node on each retry,
// so a repeatedly-contended node eventually falls behind its peers in
// the ready heap instead of looping at the front of it.
const penaltyStep = 0.1

// Config holds the run-level parameters the scheduler needs beyond the
// graph and catalog: the deterministic epoch standing in for "now",
// and the late-part arrival delay.
type Config struct {
	Epoch         time.Time
	LatePartDelay time.Duration
}

// Result is everything a caller needs after one scheduling pass: the
// placed assignments, the set of instances that could not be placed
// after exhausting retries, and any non-fatal warnings.
type Result struct {
	Assignments map[model.Key]model.Assignment
	Failed      map[model.Key]bool
	Warnings    []string
}

// State owns one scheduling run's mutable working set: per-team
// timelines, the ready heap, and the placed/failed bookkeeping. It is
// built fresh for every run (§5: runs do not share mutable state).
type State struct {
	g             *graph.Graph
	calc          *priority.Calculator
	products      map[string]model.Product
	mechanicTeams map[string]*model.Team
	qualityTeams  map[string]*model.Team
	qualityNames  []string // sorted, for deterministic iteration
	cfg           Config

	timelines map[string]*teamTimeline
	teamLoad  map[string]int // per-team duration*crew minutes already committed, for QI team balancing

	assignments map[model.Key]model.Assignment
	failed      map[model.Key]bool
	placed      map[model.NodeID]bool // placed or permanently failed; node is "done"
	pushed      map[model.NodeID]bool

	heap readyHeap
	seq  int

	warnings []string
}

// New builds a scheduler state over a dynamic graph. products,
// mechanicTeams and qualityTeams are the catalog tables the graph was
// built from.
func New(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, cfg Config) *State {
	s := &State{
		g:             g,
		calc:          calc,
		products:      make(map[string]model.Product, len(products)),
		mechanicTeams: mechanicTeams,
		qualityTeams:  qualityTeams,
		cfg:           cfg,
		timelines:     make(map[string]*teamTimeline),
		teamLoad:      make(map[string]int),
		assignments:   make(map[model.Key]model.Assignment, len(g.Instances)),
		failed:        make(map[model.Key]bool),
		placed:        make(map[model.NodeID]bool, len(g.Instances)),
		pushed:        make(map[model.NodeID]bool, len(g.Instances)),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for name := range qualityTeams {
		s.qualityNames = append(s.qualityNames, name)
	}
	sort.Strings(s.qualityNames)
	return s
}

func (s *State) timelineFor(team string) *teamTimeline {
	tl, ok := s.timelines[team]
	if !ok {
		tl = newTeamTimeline()
		s.timelines[team] = tl
	}
	return tl
}

// Run executes one deterministic forward scheduling pass and returns
// its result.
func (s *State) Run() *Result {
	indegree := make(map[model.NodeID]int, len(s.g.Instances))
	for _, inst := range s.g.Instances {
		indegree[inst.Node] = len(s.g.In[inst.Node])
	}

	var roots []model.Key
	for key, inst := range s.g.Instances {
		if indegree[inst.Node] == 0 {
			roots = append(roots, key)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })
	for _, key := range roots {
		s.push(key, 0)
	}

	iterationCap := 10 * len(s.g.Instances)
	iterations := 0
	for s.heap.Len() > 0 && iterations < iterationCap {
		iterations++
		item := heap.Pop(&s.heap).(*readyItem)
		inst := s.g.Instances[item.key]

		assignment, ok := s.tryPlace(inst)
		if ok {
			s.assignments[item.key] = assignment
			s.finish(inst)
			continue
		}

		item.failCount++
		if item.failCount >= maxRetries {
			s.failed[item.key] = true
			s.finish(inst)
			continue
		}
		s.seq++
		item.seq = s.seq
		item.priority += penaltyStep
		heap.Push(&s.heap, item)
	}

	for _, inst := range s.g.Instances {
		if !s.placed[inst.Node] {
			s.failed[inst.Key] = true
			s.warnings = append(s.warnings, "instance "+inst.Key.String()+" never became ready: unresolved dependency cycle or missing predecessor")
		}
	}

	return &Result{
		Assignments: s.assignments,
		Failed:      s.failed,
		Warnings:    append(s.g.Warnings, s.warnings...),
	}
}

func (s *State) push(key model.Key, failCount int) {
	inst := s.g.Instances[key]
	if s.pushed[inst.Node] {
		return
	}
	s.pushed[inst.Node] = true
	s.seq++
	heap.Push(&s.heap, &readyItem{
		key:       key,
		priority:  s.calc.Priority(key),
		seq:       s.seq,
		failCount: failCount,
	})
}

// finish marks a node placed-or-failed and pushes any dependent whose
// every predecessor is now done.
func (s *State) finish(inst *model.Instance) {
	s.placed[inst.Node] = true
	for _, e := range s.g.Out[inst.Node] {
		depKey := s.g.KeyOf[e.To]
		if s.readyToPush(e.To) {
			s.push(depKey, 0)
		}
	}
}

func (s *State) readyToPush(node model.NodeID) bool {
	for _, e := range s.g.In[node] {
		if !s.placed[e.From] {
			return false
		}
	}
	return true
}

// floor is the earliest-start computation of §4.4: the max over every
// scheduled predecessor's constraint, with F=S edges pinning that
// value exactly (the scheduler will not search past a pinned floor;
// if the pinned minute is infeasible the attempt simply fails, which
// is what drives the retry/permanently-failed path for contended
// quality inspections).
func (s *State) floor(inst *model.Instance) (earliest time.Time, pinned bool) {
	earliest = s.cfg.Epoch
	for _, e := range s.g.In[inst.Node] {
		predKey := s.g.KeyOf[e.From]
		a, ok := s.assignments[predKey]
		if !ok {
			continue // predecessor permanently failed; no constraint from it
		}
		var bound time.Time
		switch e.Relation {
		case model.FinishToStart, model.FinishEqualsStart:
			bound = a.End
		case model.StartToStart:
			bound = a.Start
		}
		if bound.After(earliest) {
			earliest = bound
			pinned = e.Relation == model.FinishEqualsStart
		} else if bound.Equal(earliest) && e.Relation == model.FinishEqualsStart {
			pinned = true
		}
	}

	if inst.Kind == model.LatePart && inst.OnDockDate != nil {
		dock := calendar.SnapToSixAM(inst.OnDockDate.Add(s.cfg.LatePartDelay))
		if dock.After(earliest) {
			earliest = dock
			pinned = false
		}
	}

	return earliest, pinned
}

// tryPlace computes and commits a feasible slot for inst, or reports
// failure for this attempt.
func (s *State) tryPlace(inst *model.Instance) (model.Assignment, bool) {
	product, ok := s.products[inst.Key.Product]
	if !ok {
		return model.Assignment{}, false
	}
	earliest, pinned := s.floor(inst)

	if inst.Kind == model.QualityInspection {
		return s.placeQualityInspection(inst, &product, earliest, pinned)
	}

	team, ok := s.mechanicTeams[inst.Team]
	if !ok {
		team, ok = s.qualityTeams[inst.Team]
	}
	if !ok {
		return model.Assignment{}, false
	}

	start, end, shift, ok := s.findSlot(team, &product, inst, earliest, pinned)
	if !ok {
		return model.Assignment{}, false
	}
	s.commit(team.Name, inst, start, end)
	return model.Assignment{Key: inst.Key, Start: start, End: end, Team: team.Name, Shift: shift}, true
}

func (s *State) commit(teamName string, inst *model.Instance, start, end time.Time) {
	s.timelineFor(teamName).commit(start, end, inst.Crew)
	s.teamLoad[teamName] += inst.Crew * inst.DurationMin
}

// findSlot searches forward from earliest for the first minute at
// which team is working (per the product's calendar), the whole task
// fits inside that shift occurrence without crossing into the next
// one, and committed usage leaves enough headroom for inst.Crew.
//
// When pinned, only the exact earliest minute is tried: an F=S edge
// requires the successor to start exactly when its predecessor ends,
// so delaying in search of capacity would violate that invariant.
func (s *State) findSlot(team *model.Team, product *model.Product, inst *model.Instance, earliest time.Time, pinned bool) (time.Time, time.Time, model.ShiftID, bool) {
	duration := time.Duration(inst.DurationMin) * time.Minute
	tl := s.timelineFor(team.Name)

	if pinned {
		if !product.IsWorkingDay(earliest) {
			return time.Time{}, time.Time{}, "", false
		}
		w, ok := calendar.ShiftCovering(team, earliest)
		if !ok {
			return time.Time{}, time.Time{}, "", false
		}
		end := earliest.Add(duration)
		if end.After(calendar.ShiftEnd(w, earliest)) {
			return time.Time{}, time.Time{}, "", false
		}
		if !tl.fits(earliest, end, inst.Crew, team.Capacity) {
			return time.Time{}, time.Time{}, "", false
		}
		return earliest, end, w.ID, true
	}

	cursor := earliest
	for steps := 0; steps < maxMinuteSteps; steps++ {
		cursor = calendar.NextWorkingMinute(team, product, cursor)
		w, ok := calendar.ShiftCovering(team, cursor)
		if !ok {
			cursor = cursor.Add(time.Minute)
			continue
		}
		shiftEnd := calendar.ShiftEnd(w, cursor)
		end := cursor.Add(duration)
		if end.After(shiftEnd) {
			cursor = shiftEnd
			continue
		}
		if tl.fits(cursor, end, inst.Crew, team.Capacity) {
			return cursor, end, w.ID, true
		}
		cursor = cursor.Add(time.Minute)
	}
	return time.Time{}, time.Time{}, "", false
}

type qiCandidate struct {
	team  *model.Team
	start time.Time
	end   time.Time
	shift model.ShiftID
}

// placeQualityInspection implements the §4.4 QI team/shift selection:
// for each shift in priority order, find the least-loaded qualifying
// quality team's earliest feasible start within that shift only, then
// pick the overall-earliest candidate across shifts (ties broken by
// load, then by shift priority).
func (s *State) placeQualityInspection(inst *model.Instance, product *model.Product, earliest time.Time, pinned bool) (model.Assignment, bool) {
	var candidates []qiCandidate

	for _, shiftID := range model.ShiftOrder {
		var best *qiCandidate
		bestLoad := 0
		for _, name := range s.qualityNames {
			team := s.qualityTeams[name]
			if !team.WorksShift(shiftID) || team.Capacity < inst.Crew {
				continue
			}
			restricted := &model.Team{
				Name:     team.Name,
				Kind:     team.Kind,
				Capacity: team.Capacity,
				Shifts:   map[model.ShiftID]bool{shiftID: true},
			}
			start, end, _, ok := s.findSlot(restricted, product, inst, earliest, pinned)
			if !ok {
				continue
			}
			load := s.teamLoad[name]
			if best == nil ||
				start.Before(best.start) ||
				(start.Equal(best.start) && load < bestLoad) ||
				(start.Equal(best.start) && load == bestLoad && name < best.team.Name) {
				best = &qiCandidate{team: team, start: start, end: end, shift: shiftID}
				bestLoad = load
			}
		}
		if best != nil {
			candidates = append(candidates, *best)
		}
	}

	if len(candidates) == 0 {
		return model.Assignment{}, false
	}

	overall := candidates[0]
	overallLoad := s.teamLoad[overall.team.Name]
	for _, c := range candidates[1:] {
		load := s.teamLoad[c.team.Name]
		if c.start.Before(overall.start) || (c.start.Equal(overall.start) && load < overallLoad) {
			overall, overallLoad = c, load
		}
	}

	s.commit(overall.team.Name, inst, overall.start, overall.end)
	return model.Assignment{Key: inst.Key, Start: overall.start, End: overall.end, Team: overall.team.Name, Shift: overall.shift}, true
}
