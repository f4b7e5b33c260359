package types

// Subst maps type parameter names to types.
type Subst map[string]Type

// Apply replaces parameters bound in s. Unbound parameters are kept.
func (t Type) Apply(s Subst) Type {
	if len(s) == 0 {
		return t
	}
	switch t.Kind {
	case KindParam:
		if r, ok := s[t.Name]; ok {
			return r
		}
		return t
	case KindNamed:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.Apply(s)
		}
		return Type{Kind: t.Kind, Name: t.Name, Args: args}
	}
	return t
}

// ApplyAll applies s to every type in ts.
func ApplyAll(ts []Type, s Subst) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.Apply(s)
	}
	return out
}

// ReplaceSelf substitutes Self with self everywhere in t.
func (t Type) ReplaceSelf(self Type) Type {
	switch t.Kind {
	case KindSelf:
		return self
	case KindNamed:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.ReplaceSelf(self)
		}
		return Type{Kind: t.Kind, Name: t.Name, Args: args}
	}
	return t
}

// Bind builds a substitution from parameter names to arguments.
func Bind(params []string, args []Type) Subst {
	s := make(Subst, len(params))
	for i, p := range params {
		if i < len(args) {
			s[p] = args[i]
		}
	}
	return s
}

// Match matches pattern against actual, binding parameters listed in vars.
// Parameters not in vars and all of actual are rigid. bind is extended in
// place; a parameter already bound must match its binding exactly.
func Match(pattern, actual Type, vars map[string]bool, bind Subst) bool {
	if pattern.Kind == KindParam && vars[pattern.Name] {
		if prev, ok := bind[pattern.Name]; ok {
			return prev.Equal(actual)
		}
		bind[pattern.Name] = actual
		return true
	}
	if pattern.Kind != actual.Kind || pattern.Name != actual.Name || len(pattern.Args) != len(actual.Args) {
		return false
	}
	for i := range pattern.Args {
		if !Match(pattern.Args[i], actual.Args[i], vars, bind) {
			return false
		}
	}
	return true
}

// MatchAll matches pattern lists pairwise.
func MatchAll(patterns, actuals []Type, vars map[string]bool, bind Subst) bool {
	if len(patterns) != len(actuals) {
		return false
	}
	for i := range patterns {
		if !Match(patterns[i], actuals[i], vars, bind) {
			return false
		}
	}
	return true
}

// VarSet lists names as a set for Match.
func VarSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
