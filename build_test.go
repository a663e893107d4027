package disclosure_test

import (
	"context"
	"sync"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSink merges entities in memory.
type mapSink struct {
	mu       sync.Mutex
	entities map[string]*disclosure.Entity
	order    []string
	fail     error
}

func newMapSink() *mapSink {
	return &mapSink{entities: make(map[string]*disclosure.Entity)}
}

func (s *mapSink) Emit(ctx context.Context, e *disclosure.Entity) error {
	if err := disclosure.CheckSchema(e); err != nil {
		return err
	}
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, e.ID)
	if cur, ok := s.entities[e.ID]; ok {
		return cur.Merge(e)
	}
	s.entities[e.ID] = e.Clone()
	return nil
}

func (s *mapSink) Close() error { return nil }

func TestBuild(t *testing.T) {
	e, err := disclosure.Build(disclosure.Person, "physician-1", map[string][]string{
		"name":      {"Jane Doe"},
		"firstName": {"Jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", e.Caption())

	_, err = disclosure.Build(disclosure.Person, "", map[string][]string{"name": {"Jane Doe"}})
	assert.True(t, errors.Is(err, errors.ErrUnresolvableIdentity))

	_, err = disclosure.Build(disclosure.Person, "physician-1", map[string][]string{"name": {" "}})
	assert.True(t, errors.Is(err, errors.ErrMissingRequiredField))

	_, err = disclosure.Build(disclosure.Person, "physician-1", map[string][]string{"name": {"x"}, "amount": {"1"}})
	assert.Error(t, err)
}

func TestEmitter(t *testing.T) {
	ctx := context.Background()
	sink := newMapSink()
	log := logger.NewBufferLogger()
	em := disclosure.NewEmitter("test", sink, log)

	var seen []string
	em.OnEmit = func(e *disclosure.Entity) { seen = append(seen, e.ID) }

	p := em.Make(disclosure.Person)
	p.Add("name", "Jane Doe")
	// Unresolved and nil entities are skipped quietly.
	require.NoError(t, em.Emit(ctx, p))
	require.NoError(t, em.Emit(ctx, nil))
	assert.Equal(t, 2, em.Skipped())
	assert.Equal(t, 0, em.Total())

	p.ID = "physician-1"
	require.NoError(t, em.Emit(ctx, p))
	require.NoError(t, em.Emit(ctx, p))

	invalid := disclosure.NewEntity(disclosure.Organization, "org-1")
	err := em.Emit(ctx, invalid)
	assert.True(t, errors.Is(err, errors.ErrMissingRequiredField))

	foreign := disclosure.NewEntity(&disclosure.Schema{Name: "Vessel"}, "v-1")
	err = em.Emit(ctx, foreign)
	assert.True(t, errors.Is(err, errors.ErrUnknownType))

	assert.Equal(t, map[string]int{"Person": 2}, em.Emitted())
	assert.Equal(t, 2, em.Total())
	assert.Equal(t, []string{"physician-1", "physician-1"}, seen)
	assert.Len(t, sink.entities, 1)

	sink.fail = errors.New(errors.ErrUncoded, "disk full")
	err = em.EmitAll(ctx, p)
	assert.Contains(t, err.Error(), "emitting Person(physician-1): disk full")
}

func TestMultiSink(t *testing.T) {
	a, b := newMapSink(), newMapSink()
	m := disclosure.MultiSink{a, b}
	e := disclosure.NewEntity(disclosure.Person, "physician-1")
	e.Add("name", "Jane Doe")
	require.NoError(t, m.Emit(context.Background(), e))
	require.NoError(t, m.Close())
	assert.Len(t, a.entities, 1)
	assert.Len(t, b.entities, 1)
}
