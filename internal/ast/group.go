package ast

// Group is the ordered batch of declarations produced by one top-level unit.
// Stages may rewrite it in place; later stages see the result.
type Group struct {
	Decls []DeclID
}

func GroupOf(ids ...DeclID) Group {
	return Group{Decls: ids}
}

func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Decls)
}

func (g *Group) IsEmpty() bool {
	return g.Len() == 0
}

func (g *Group) First() DeclID {
	if g.IsEmpty() {
		return NoDeclID
	}
	return g.Decls[0]
}

func (g *Group) Last() DeclID {
	if g.IsEmpty() {
		return NoDeclID
	}
	return g.Decls[len(g.Decls)-1]
}

// InsertBefore places ids in front of position i.
func (g *Group) InsertBefore(i int, ids ...DeclID) {
	if len(ids) == 0 {
		return
	}
	out := make([]DeclID, 0, len(g.Decls)+len(ids))
	out = append(out, g.Decls[:i]...)
	out = append(out, ids...)
	out = append(out, g.Decls[i:]...)
	g.Decls = out
}

// Clone returns a copy that does not share the backing array.
func (g Group) Clone() Group {
	return Group{Decls: append([]DeclID(nil), g.Decls...)}
}
