package domain

import "strings"

// ReferenceKind enumerates the normalized usage-site kinds a reference can
// carry.
type ReferenceKind string

const (
	RefCall           ReferenceKind = "call"
	RefQualifiedCall  ReferenceKind = "qualified_call"
	RefImport         ReferenceKind = "import"
	RefAlias          ReferenceKind = "alias"
	RefUse            ReferenceKind = "use"
	RefRequire        ReferenceKind = "require"
	RefNew            ReferenceKind = "new"
	RefExtends        ReferenceKind = "extends"
	RefImplements     ReferenceKind = "implements"
	RefTypeReference  ReferenceKind = "type_reference"
)

// CallKinds is the set of reference kinds call_graph treats as call sites
// (§4.6).
var CallKinds = map[ReferenceKind]bool{
	RefCall:          true,
	RefQualifiedCall: true,
}

// Reference is a usage site of some name extracted from one source file.
type Reference struct {
	ID            int64
	FilePath      string
	Name          string
	QualifiedName string
	Kind          ReferenceKind
	Language      Language
	Line          int
	Col           int
	EndLine       *int
	EndCol        *int
	TargetModule  string
	Metadata      map[string]string
	FileHash      string
	SymbolID      *int64
	ContainerID   *int64
}

// SplitQualified applies the §4.2 reference post-processing rule: when name
// contains dots, the last component becomes Name and the join of the
// preceding components becomes TargetModule. QualifiedName, if not already
// set, is assigned the original dotted form.
func (r *Reference) SplitQualified() {
	if !strings.Contains(r.Name, ".") {
		if r.QualifiedName == "" {
			r.QualifiedName = r.Name
		}
		return
	}

	parts := strings.Split(r.Name, ".")
	last := parts[len(parts)-1]
	target := strings.Join(parts[:len(parts)-1], ".")

	if r.QualifiedName == "" {
		r.QualifiedName = r.Name
	}
	r.Name = last
	r.TargetModule = target
}

// ResolvedQualifiedName returns name prefixed by target_module, matching
// the §3 invariant: if qualified_name is absent it is computed from
// target_module + "." + name (or just name).
func (r *Reference) ResolvedQualifiedName() string {
	if r.QualifiedName != "" {
		return r.QualifiedName
	}
	if r.TargetModule != "" {
		return r.TargetModule + "." + r.Name
	}
	return r.Name
}

// DedupeKey is the (line, col, name) tuple used to drop duplicate
// tree-sitter matches (§4.2).
type DedupeKey struct {
	Line int
	Col  int
	Name string
}

// Key returns this reference's dedupe key.
func (r *Reference) Key() DedupeKey {
	return DedupeKey{Line: r.Line, Col: r.Col, Name: r.Name}
}

// DeduplicateReferences removes references sharing a (line, col, name) key,
// keeping the first occurrence, preserving relative order.
func DeduplicateReferences(refs []Reference) []Reference {
	seen := make(map[DedupeKey]bool, len(refs))
	out := make([]Reference, 0, len(refs))
	for _, r := range refs {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
