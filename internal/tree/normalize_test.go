package tree

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		want string
	}{
		{name: "already normal", tree: sample(), want: "A AND (B OR (C AND D)) AND E"},
		{name: "empty group dropped", tree: Tree{l("A"), and()}, want: "A"},
		{name: "singleton promoted", tree: Tree{or(l("A")), l("B")}, want: "A AND B"},
		{name: "nested collapse", tree: Tree{and(or(l("B")), l("C"), or())}, want: "(B AND C)"},
		{name: "chain of singletons", tree: Tree{or(and(or(l("A"))))}, want: "A"},
		{name: "only empties", tree: Tree{or(and(or())), and()}, want: ""},
		{name: "same condition is not flattened", tree: Tree{and(l("A"), and(l("B"), l("C")))}, want: "(A AND (B AND C))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.tree)
			if got.String() != tt.want {
				t.Errorf("Normalize() = %s, want %s", got, tt.want)
			}
			if !wellFormed(got) {
				t.Errorf("Normalize() left a group with fewer than two children: %s", got)
			}
		})
	}
}

func TestNormalize_ReturnsInputWhenUnchanged(t *testing.T) {
	tr := sample()
	got := Normalize(tr)
	if len(got) != len(tr) || &got[0] != &tr[0] {
		t.Error("Normalize() copied a tree that needed no changes")
	}
}

func TestNormalize_SharesUnchangedGroups(t *testing.T) {
	kept := or(l("B"), l("C"))
	tr := Tree{l("A"), and(), kept}

	got := Normalize(tr)
	if len(got) != 2 || got[0] != tr[0] || got[1] != kept {
		t.Errorf("Normalize() = %s, want untouched nodes shared", got)
	}
}

func TestNormalize_PromotedChildIsSameNode(t *testing.T) {
	a := l("A")
	got := Normalize(Tree{or(a)})
	if len(got) != 1 || got[0] != a {
		t.Errorf("Normalize() = %s, want the original leaf promoted", got)
	}
}
