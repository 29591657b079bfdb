package tree

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/filtertree/internal/types"
)

func treeProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	return gopter.NewProperties(parameters)
}

func TestNormalize_Property(t *testing.T) {
	properties := treeProperties()

	properties.Property("normalize is idempotent", prop.ForAll(
		func(seed int64) bool {
			once := Normalize(randomTree(seed))
			twice := Normalize(once)
			return cmp.Equal(once, twice) && twice.String() == once.String()
		},
		gen.Int64(),
	))

	properties.Property("normalized trees have no empty or singleton groups", prop.ForAll(
		func(seed int64) bool {
			return wellFormed(Normalize(randomTree(seed)))
		},
		gen.Int64(),
	))

	properties.Property("normalize keeps every leaf", prop.ForAll(
		func(seed int64) bool {
			tr := randomTree(seed)
			return CountLeaves(Normalize(tr)) == CountLeaves(tr)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestMutation_Property(t *testing.T) {
	properties := treeProperties()

	properties.Property("remove of a leaf yields N-1 leaves, normalized", prop.ForAll(
		func(seed int64) bool {
			tr := Normalize(randomTree(seed))
			leaves := paths(tr, leafOnly)
			if len(leaves) == 0 {
				return true
			}
			r := rand.New(rand.NewSource(seed))
			before := tr.String()

			got, err := Remove(tr, leaves[r.Intn(len(leaves))])
			if err != nil {
				return false
			}
			return CountLeaves(got) == len(leaves)-1 && wellFormed(got) && tr.String() == before
		},
		gen.Int64(),
	))

	properties.Property("add yields N+1 leaves under either branch", prop.ForAll(
		func(seed int64) bool {
			tr := randomTree(seed)
			r := rand.New(rand.NewSource(seed))
			targets := append(paths(tr, anyNode), Path{}, Path{len(tr)})
			target := targets[r.Intn(len(targets))]
			before := tr.String()

			got, err := Add(tr, l("new"), target, randomCondition(r))
			if err != nil {
				return false
			}
			return CountLeaves(got) == CountLeaves(tr)+1 && tr.String() == before
		},
		gen.Int64(),
	))

	properties.Property("move preserves leaf count", prop.ForAll(
		func(seed int64) bool {
			tr := Normalize(randomTree(seed))
			nodes := paths(tr, anyNode)
			if len(nodes) == 0 {
				return true
			}
			r := rand.New(rand.NewSource(seed))
			from := nodes[r.Intn(len(nodes))]
			targets := append(nodes, Path{}, Path{len(tr)})
			to := targets[r.Intn(len(targets))]
			before := tr.String()

			got, err := Move(tr, from, to, randomCondition(r))
			if errors.Is(err, types.ErrMoveIntoSelf) {
				return to.HasPrefix(from)
			}
			if err != nil {
				return false
			}
			return CountLeaves(got) == CountLeaves(tr) && tr.String() == before
		},
		gen.Int64(),
	))

	properties.Property("every add accepted by the default policy succeeds", prop.ForAll(
		func(seed int64) bool {
			tr := Normalize(randomTree(seed))
			r := rand.New(rand.NewSource(seed))
			targets := append(paths(tr, anyNode), Path{len(tr)})
			target := targets[r.Intn(len(targets))]
			cond := randomCondition(r)

			if err := DefaultPolicy().CheckAdd(tr, target, cond); err != nil {
				return errors.Is(err, types.ErrConditionDisabled)
			}
			_, err := Add(tr, l("new"), target, cond)
			return err == nil
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestWire_Property(t *testing.T) {
	properties := treeProperties()

	properties.Property("wire form round trips", prop.ForAll(
		func(seed int64) bool {
			tr := randomTree(seed)
			got, err := FromWire(ToWire(tr))
			return err == nil && cmp.Equal(tr, got)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
