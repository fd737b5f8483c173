package services

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by a quotation and its RFQ.
type Status string

const (
	StatusTodo        Status = "Todo"
	StatusWorkingDone Status = "WorkingDone"
	StatusApproved    Status = "Approved"
	StatusWaiting     Status = "Waiting"
	StatusWon         Status = "Won"
	StatusLoss        Status = "Loss"
	StatusRevised     Status = "Revised"
)

// AllStatuses in lifecycle order.
var AllStatuses = []Status{
	StatusTodo, StatusWorkingDone, StatusApproved, StatusWaiting,
	StatusWon, StatusLoss, StatusRevised,
}

// ParseStatus maps a stored status tag to a Status. Tags are matched
// exactly, as the store filters on them; only surrounding whitespace is
// ignored.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Action is a user operation that moves a quotation between statuses.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSend     Action = "send"
	ActionWin      Action = "win"
	ActionLose     Action = "lose"
	ActionRevise   Action = "revise"
	ActionResubmit Action = "resubmit"
)

// Transition is one row of the workflow table.
type Transition struct {
	From Status
	To   Status
}

var transitions = map[Action]Transition{
	ActionSubmit:   {From: StatusTodo, To: StatusWorkingDone},
	ActionApprove:  {From: StatusWorkingDone, To: StatusApproved},
	ActionReject:   {From: StatusWorkingDone, To: StatusTodo},
	ActionSend:     {From: StatusApproved, To: StatusWaiting},
	ActionWin:      {From: StatusWaiting, To: StatusWon},
	ActionLose:     {From: StatusWaiting, To: StatusLoss},
	ActionRevise:   {From: StatusWaiting, To: StatusRevised},
	ActionResubmit: {From: StatusRevised, To: StatusWorkingDone},
}

// TransitionFor returns the table entry for an action.
func TransitionFor(a Action) (Transition, bool) {
	t, ok := transitions[a]
	return t, ok
}

// LossReason is the closed set of reasons a quotation can be lost for.
type LossReason string

const (
	LossDelivery      LossReason = "Delivery"
	LossBudget        LossReason = "Budget"
	LossMaterialSpecs LossReason = "Material Specification"
)

var LossReasons = []LossReason{LossDelivery, LossBudget, LossMaterialSpecs}

func ParseLossReason(s string) (LossReason, bool) {
	s = strings.TrimSpace(s)
	for _, r := range LossReasons {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Stage is a screen's view of the workflow: the status it lists.
type Stage string

const (
	StageApproval Stage = "approval"
	StageDispatch Stage = "dispatch"
	StageResult   Stage = "result"
	StageRevision Stage = "revision"
	StagePurchase Stage = "purchase"
)

var stageStatus = map[Stage]Status{
	StageApproval: StatusWorkingDone,
	StageDispatch: StatusApproved,
	StageResult:   StatusWaiting,
	StageRevision: StatusRevised,
	StagePurchase: StatusWon,
}

var AllStages = []Stage{StageApproval, StageDispatch, StageResult, StageRevision, StagePurchase}

// Status returns the status listed by the stage.
func (s Stage) Status() (Status, bool) {
	st, ok := stageStatus[s]
	return st, ok
}

func ParseStage(s string) (Stage, bool) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	_, ok := stageStatus[st]
	return st, ok
}
