package rule

import "github.com/ray-pH/equaio/internal/expr"

type ActionKind string

const (
	KindInitial   ActionKind = "initial"
	KindRule      ActionKind = "rule"
	KindEvaluate  ActionKind = "evaluate"
	KindEquation  ActionKind = "equation"
	KindNormalize ActionKind = "normalize"
)

// Action describes how a line was derived from its predecessor.
type Action struct {
	Kind    ActionKind   `json:"kind"`
	RuleID  string       `json:"rule_id,omitempty"`
	Label   string       `json:"label"`
	Address expr.Address `json:"address"`
}

func InitialAction() Action {
	return Action{Kind: KindInitial, Label: "Initial", Address: expr.Root()}
}

func (a Action) String() string {
	return a.Label
}

func (a Action) Clone() Action {
	a.Address = a.Address.Clone()
	return a
}

// Candidate pairs an action with the expression it produces.
type Candidate struct {
	Action Action
	Result expr.Expression
}
