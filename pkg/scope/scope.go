// Package scope compiles a caller's tenancy context into a graph-query
// predicate. Every aliased node in every strategy and pattern-detection
// query must have this predicate applied; there is no row-level security in
// the graph store itself.
package scope

import (
	"fmt"
	"strings"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// Context identifies the caller. At least one of UserID or TeamID (directly
// or via a "team:"-prefixed WorkspaceID) must be present.
type Context struct {
	UserID      string `json:"user_id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	TeamID      string `json:"team_id,omitempty"`
}

// TeamWorkspacePrefix is the canonical prefix of a team workspace id.
const TeamWorkspacePrefix = "team:"

// PersonalWorkspace returns the canonical personal workspace id for a user.
func PersonalWorkspace(userID string) string {
	return "user:" + userID
}

// TeamWorkspace returns the canonical workspace id for a team.
func TeamWorkspace(teamID string) string {
	return TeamWorkspacePrefix + teamID
}

// resolveTeam returns the effective team id, from an explicit TeamID or by
// stripping the team prefix from WorkspaceID. TeamID alone is accepted; this
// is the one canonical rule shared by search and pattern detection.
func (c Context) resolveTeam() string {
	if c.TeamID != "" {
		return c.TeamID
	}
	if strings.HasPrefix(c.WorkspaceID, TeamWorkspacePrefix) {
		return strings.TrimPrefix(c.WorkspaceID, TeamWorkspacePrefix)
	}
	return ""
}

// Predicate is a boolean expression tree over node properties. It renders to
// Cypher at the call site, keeping the compiler testable without a driver
// and keeping parameters out of the query text.
type Predicate interface {
	render(alias string, sb *strings.Builder)
}

// Cmp compares a node property against a named parameter.
type Cmp struct {
	Property string
	Operator string // "=", "<>", ...
	Param    string
}

func (c Cmp) render(alias string, sb *strings.Builder) {
	fmt.Fprintf(sb, "%s.%s %s $%s", alias, c.Property, c.Operator, c.Param)
}

// IsNull tests a node property for null.
type IsNull struct {
	Property string
}

func (n IsNull) render(alias string, sb *strings.Builder) {
	fmt.Fprintf(sb, "%s.%s IS NULL", alias, n.Property)
}

// And is a conjunction of predicates.
type And []Predicate

func (a And) render(alias string, sb *strings.Builder) {
	renderJoined(a, alias, sb, " AND ")
}

// Or is a disjunction of predicates.
type Or []Predicate

func (o Or) render(alias string, sb *strings.Builder) {
	renderJoined(o, alias, sb, " OR ")
}

func renderJoined(ps []Predicate, alias string, sb *strings.Builder, sep string) {
	sb.WriteString("(")
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(sep)
		}
		p.render(alias, sb)
	}
	sb.WriteString(")")
}

// Filter is a compiled ownership filter: a predicate plus the parameter
// bindings it references. One Filter can be rendered against any number of
// aliases within the same query; the parameters are alias-independent.
type Filter struct {
	predicate Predicate
	params    map[string]any
}

// Render produces the Cypher fragment for one node alias. Callers must
// render the filter once per aliased node they match, including nodes
// reached by traversal.
func (f *Filter) Render(alias string) string {
	var sb strings.Builder
	f.predicate.render(alias, &sb)
	return sb.String()
}

// Params returns the parameter bindings referenced by the predicate. Merge
// them into the query's parameter map exactly once.
func (f *Filter) Params() map[string]any {
	out := make(map[string]any, len(f.params))
	for k, v := range f.params {
		out[k] = v
	}
	return out
}

// Compile turns a tenancy context into an ownership filter.
//
// Rule order:
//  1. Team resolvable: match team_id, the team workspace, or the caller's
//     personal workspace (keeps pre-join personal data visible).
//  2. User only: match the personal workspace, or legacy rows with a null
//     workspace_id owned by the caller.
//  3. Neither: ConfigurationError.
func Compile(c Context) (*Filter, error) {
	if team := c.resolveTeam(); team != "" {
		clauses := Or{
			Cmp{Property: "team_id", Operator: "=", Param: "scope_team_id"},
			Cmp{Property: "workspace_id", Operator: "=", Param: "scope_team_ws"},
		}
		params := map[string]any{
			"scope_team_id": team,
			"scope_team_ws": TeamWorkspace(team),
		}
		if c.UserID != "" {
			clauses = append(clauses, Cmp{Property: "workspace_id", Operator: "=", Param: "scope_personal_ws"})
			params["scope_personal_ws"] = PersonalWorkspace(c.UserID)
		}
		return &Filter{predicate: clauses, params: params}, nil
	}

	if c.UserID != "" {
		return &Filter{
			predicate: Or{
				Cmp{Property: "workspace_id", Operator: "=", Param: "scope_personal_ws"},
				And{
					Cmp{Property: "user_id", Operator: "=", Param: "scope_user_id"},
					IsNull{Property: "workspace_id"},
				},
			},
			params: map[string]any{
				"scope_personal_ws": PersonalWorkspace(c.UserID),
				"scope_user_id":     c.UserID,
			},
		}, nil
	}

	return nil, &types.ConfigurationError{Reason: "search context has no user, team, or workspace identity"}
}
