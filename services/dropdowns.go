package services

// Option is a value/label pair for a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// QuoteOptions are the choices offered by the quotation screens.
type QuoteOptions struct {
	Statuses    []Option `json:"statuses"`
	Stages      []Option `json:"stages"`
	LossReasons []Option `json:"lossReasons"`
}

var statusLabels = map[Status]string{
	StatusTodo:        "To Do",
	StatusWorkingDone: "Working Done",
	StatusApproved:    "Approved",
	StatusWaiting:     "Waiting for Result",
	StatusWon:         "Won",
	StatusLoss:        "Loss",
	StatusRevised:     "Revised",
}

var stageLabels = map[Stage]string{
	StageApproval: "Quotation Approval",
	StageDispatch: "Quotation Sent",
	StageResult:   "Quotation Result",
	StageRevision: "Quotation Revision",
	StagePurchase: "Purchase Order",
}

func Options() QuoteOptions {
	var o QuoteOptions
	for _, s := range AllStatuses {
		o.Statuses = append(o.Statuses, Option{Value: string(s), Label: statusLabels[s]})
	}
	for _, s := range AllStages {
		o.Stages = append(o.Stages, Option{Value: string(s), Label: stageLabels[s]})
	}
	for _, r := range LossReasons {
		o.LossReasons = append(o.LossReasons, Option{Value: string(r), Label: string(r)})
	}
	return o
}
