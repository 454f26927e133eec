package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/mmdatafocus/lostfound_backend/models"
)

func TestSortCandidates_BestScoreFirst(t *testing.T) {
	cands := []scoredCandidate{
		{id: 3, breakdown: ScoreBreakdown{Total: 0.72}},
		{id: 1, breakdown: ScoreBreakdown{Total: 0.91}},
		{id: 2, breakdown: ScoreBreakdown{Total: 0.85}},
	}
	sortCandidates(cands)

	if cands[0].id != 1 || cands[1].id != 2 || cands[2].id != 3 {
		t.Fatalf("expected order [1 2 3], got [%d %d %d]", cands[0].id, cands[1].id, cands[2].id)
	}
}

func TestSortCandidates_TieBreaksOnLowestId(t *testing.T) {
	cands := []scoredCandidate{
		{id: 9, breakdown: ScoreBreakdown{Total: 0.80}},
		{id: 4, breakdown: ScoreBreakdown{Total: 0.80}},
		{id: 7, breakdown: ScoreBreakdown{Total: 0.80}},
	}
	sortCandidates(cands)

	if cands[0].id != 4 || cands[1].id != 7 || cands[2].id != 9 {
		t.Fatalf("equal scores must order by id, got [%d %d %d]", cands[0].id, cands[1].id, cands[2].id)
	}
}

// fakeRegistry mirrors the CAS claim semantics: a report flips pending ->
// matched exactly once, and concurrent claimers observing the same candidate
// list agree on a single winner per report.
type fakeRegistry struct {
	mu      sync.Mutex
	pending map[int]bool
}

func newFakeRegistry(ids ...int) *fakeRegistry {
	p := map[int]bool{}
	for _, id := range ids {
		p[id] = true
	}
	return &fakeRegistry{pending: p}
}

func (r *fakeRegistry) claim(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending[id] {
		return false
	}
	r.pending[id] = false
	return true
}

// claimBest walks candidates best-first and claims the first still pending.
func (r *fakeRegistry) claimBest(self int, cands []scoredCandidate) (int, bool) {
	if !r.claim(self) {
		return 0, false
	}
	for _, c := range cands {
		if r.claim(c.id) {
			return c.id, true
		}
	}
	return 0, false
}

func TestClaimSemantics_ReportConsumedOnce(t *testing.T) {
	for run := 0; run < 100; run++ {
		// Two concurrent scans for different new reports, same candidate pool.
		reg := newFakeRegistry(100, 101, 200)
		cands := []scoredCandidate{
			{id: 200, breakdown: ScoreBreakdown{Total: 0.9}},
		}

		var wg sync.WaitGroup
		winners := make([]int, 2)
		claimed := make([]bool, 2)
		for i, self := range []int{100, 101} {
			wg.Add(1)
			go func(slot, selfId int) {
				defer wg.Done()
				winners[slot], claimed[slot] = reg.claimBest(selfId, cands)
			}(i, self)
		}
		wg.Wait()

		got := 0
		for i := range claimed {
			if claimed[i] {
				got++
				if winners[i] != 200 {
					t.Fatalf("run=%d unexpected winner %d", run, winners[i])
				}
			}
		}
		if got != 1 {
			t.Fatalf("run=%d candidate 200 claimed %d times, expected exactly 1", run, got)
		}
	}
}

func (r *fakeRegistry) claimFunc() func(id int) error {
	return func(id int) error {
		if !r.claim(id) {
			return models.ErrReportConsumed
		}
		return nil
	}
}

func TestClaimFirstAvailable_FallsBackToNextCandidate(t *testing.T) {
	reg := newFakeRegistry(300)
	// 200 is already consumed; the walk must fall through to 300.
	cands := []scoredCandidate{
		{id: 200, breakdown: ScoreBreakdown{Total: 0.95}},
		{id: 300, breakdown: ScoreBreakdown{Total: 0.80}},
	}

	winner, ok, err := claimFirstAvailable(cands, reg.claimFunc())
	if err != nil || !ok || winner.id != 300 {
		t.Fatalf("expected fallback to candidate 300, got winner=%+v ok=%v err=%v", winner, ok, err)
	}
}

func TestClaimFirstAvailable_AllConsumed(t *testing.T) {
	reg := newFakeRegistry()
	cands := []scoredCandidate{{id: 200, breakdown: ScoreBreakdown{Total: 0.9}}}

	if _, ok, err := claimFirstAvailable(cands, reg.claimFunc()); ok || err != nil {
		t.Fatalf("consumed pool must yield no winner, got ok=%v err=%v", ok, err)
	}
}

func TestClaimFirstAvailable_ErrorAborts(t *testing.T) {
	boom := errors.New("deadlock")
	cands := []scoredCandidate{
		{id: 200, breakdown: ScoreBreakdown{Total: 0.9}},
		{id: 300, breakdown: ScoreBreakdown{Total: 0.8}},
	}

	calls := 0
	_, ok, err := claimFirstAvailable(cands, func(id int) error {
		calls++
		return boom
	})
	if ok || !errors.Is(err, boom) {
		t.Fatalf("expected abort with the claim error, got ok=%v err=%v", ok, err)
	}
	if calls != 1 {
		t.Fatalf("a non-consumed error must stop the walk, got %d calls", calls)
	}
}

func TestClaimFirstAvailable_CollidingIdsAcrossTables(t *testing.T) {
	// Lost and found ids come from independent auto-increment sequences, so a
	// fresh database can hold lost report 1 and found report 1 at once. The
	// candidate claim must target the candidate's table even when the new
	// report shares its numeric id.
	lostTable := newFakeRegistry(1)
	foundTable := newFakeRegistry(1)

	// Scan for lost report 1: the self claim consumes lost_items#1 first,
	// the way claimBestMatch does inside its transaction.
	if !lostTable.claim(1) {
		t.Fatal("self claim of lost report 1 should succeed")
	}

	cands := []scoredCandidate{{id: 1, breakdown: ScoreBreakdown{Total: 0.9}}}
	winner, ok, err := claimFirstAvailable(cands, foundTable.claimFunc())
	if err != nil || !ok || winner.id != 1 {
		t.Fatalf("found candidate 1 must be claimable despite the id collision, got winner=%+v ok=%v err=%v", winner, ok, err)
	}
	if foundTable.claim(1) {
		t.Fatal("found report 1 should now be consumed")
	}
}

func TestClaimSemantics_SelfAlreadyConsumedIsNoop(t *testing.T) {
	reg := newFakeRegistry(200)
	cands := []scoredCandidate{{id: 200, breakdown: ScoreBreakdown{Total: 0.9}}}

	if _, ok := reg.claimBest(100, cands); ok {
		t.Fatal("a scan whose own report is consumed must not claim candidates")
	}
	if !reg.claim(200) {
		t.Fatal("candidate 200 should still be pending")
	}
}
