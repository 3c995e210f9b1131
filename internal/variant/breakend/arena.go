package breakend

import (
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"

	"github.com/PROSIC/libprosic/internal/errs"
)

const numShards = 16

// pendingMember mirrors Member but stores its extension sequence
// snappy-compressed, since a breakend group can accumulate many kilobytes of
// extension sequence across its members while waiting for the group's last
// record (§9 "Arena for breakend groups").
type pendingMember struct {
	id       string
	recordID string
	mod      ExtensionModification
	side     Side
	joinCtg  string
	joinPos  int64
	compExt  []byte
}

func compress(m Member) pendingMember {
	return pendingMember{
		id:       m.ID,
		recordID: m.RecordID,
		mod:      m.Alt.Mod,
		side:     m.Alt.Side,
		joinCtg:  m.Alt.JoinContig,
		joinPos:  m.Alt.JoinPos,
		compExt:  snappy.Encode(nil, m.Alt.Extension),
	}
}

func (p pendingMember) decompress() (Member, error) {
	ext, err := snappy.Decode(nil, p.compExt)
	if err != nil {
		return Member{}, err
	}
	return Member{
		ID:       p.id,
		RecordID: p.recordID,
		Alt: Alt{
			Mod:        p.mod,
			Side:       p.side,
			Extension:  ext,
			JoinContig: p.joinCtg,
			JoinPos:    p.joinPos,
		},
	}, nil
}

// builder accumulates a group's members until Expected are seen.
type builder struct {
	members  []pendingMember
	expected int
}

// Arena holds in-flight breakend group builders keyed by event id, with
// explicit removal once a group is materialized (§9). It is sharded by a
// seahash of the event id to reduce lock contention between preprocessing
// workers that happen to be touching different event ids concurrently.
type Arena struct {
	shards [numShards]shard
}

type shard struct {
	mu       sync.Mutex
	builders map[string]*builder
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	a := &Arena{}
	for i := range a.shards {
		a.shards[i].builders = make(map[string]*builder)
	}
	return a
}

func shardFor(a *Arena, eventID string) *shard {
	h := seahash.Sum64([]byte(eventID))
	return &a.shards[h%numShards]
}

// Add registers one breakend member under its event id, given the expected
// total member count for the event (precomputed by the preprocessor's
// breakend index, §4.6). When the group reaches its expected size, Add
// returns the full, decompressed member list and removes the builder from
// the arena; otherwise it returns ready=false.
func (a *Arena) Add(eventID string, expected int, m Member) (members []Member, ready bool, err error) {
	s := shardFor(a, eventID)
	s.mu.Lock()
	b, ok := s.builders[eventID]
	if !ok {
		b = &builder{expected: expected}
		s.builders[eventID] = b
	}
	b.members = append(b.members, compress(m))
	if expected > 0 && expected != b.expected {
		s.mu.Unlock()
		return nil, false, errs.NewInput("breakend event %s: inconsistent expected member count (%d vs %d)", eventID, b.expected, expected)
	}
	full := len(b.members) >= b.expected
	var pending []pendingMember
	if full {
		pending = b.members
		delete(s.builders, eventID)
	}
	s.mu.Unlock()

	if !full {
		return nil, false, nil
	}
	out := make([]Member, len(pending))
	for i, p := range pending {
		out[i], err = p.decompress()
		if err != nil {
			return nil, false, err
		}
	}
	return out, true, nil
}

// Pending returns the number of event ids with an in-flight builder; used by
// tests and diagnostics to confirm the arena does not leak groups whose last
// record never arrives.
func (a *Arena) Pending() int {
	n := 0
	for i := range a.shards {
		a.shards[i].mu.Lock()
		n += len(a.shards[i].builders)
		a.shards[i].mu.Unlock()
	}
	return n
}
