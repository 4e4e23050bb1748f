package markup

// These errors come from registering rules and macros.  Errors in
// story markup are rendered inline instead.

// DuplicateName occurs when a rule or macro name is already taken.
type DuplicateName struct {
	Kind string
	Name string
}

func (e *DuplicateName) Error() string {
	if e.Kind == "macro" {
		return "cannot clobber existing macro <<" + e.Name + ">>"
	}
	return `cannot clobber existing ` + e.Kind + ` "` + e.Name + `"`
}

// InvalidRule occurs when a Rule is missing something it needs.
type InvalidRule struct {
	Name    string
	Problem string
}

func (e *InvalidRule) Error() string {
	if e.Name == "" {
		return "parser object " + e.Problem
	}
	return `parser "` + e.Name + `" ` + e.Problem
}

// UnknownProfile occurs when asking for a profile that no rule
// belongs to.
type UnknownProfile struct {
	Profile string
}

func (e *UnknownProfile) Error() string {
	return `nonexistent parser profile "` + e.Profile + `"`
}

// BadMacro occurs when a macro definition or name isn't acceptable.
type BadMacro struct {
	Name    string
	Problem string
}

func (e *BadMacro) Error() string {
	return "macro <<" + e.Name + ">>: " + e.Problem
}
