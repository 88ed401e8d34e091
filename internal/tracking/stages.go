package tracking

// Stage bounds
const (
	FirstStage = 1
	FinalStage = 8
)

// Stage is one shipment milestone
type Stage struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Stages lists the milestones in order
var Stages = []Stage{
	{ID: 1, Label: "Order Placed"},
	{ID: 2, Label: "Payment Pending"},
	{ID: 3, Label: "Order Confirmed"},
	{ID: 4, Label: "Order Approved"},
	{ID: 5, Label: "Order in Market"},
	{ID: 6, Label: "Order in Quarantine"},
	{ID: 7, Label: "In Transit"},
	{ID: 8, Label: "Order Delivered"},
}

// Label returns the name of a stage, or "" for ids outside the table
func Label(id int) string {
	if id < FirstStage || id > FinalStage {
		return ""
	}
	return Stages[id-1].Label
}

// Action labels for the current stage
const (
	ActionUpdate          = "Update"
	ActionConfirmDelivery = "Confirm Delivery"
)

// StageView is one row of a sub-item's progress timeline
type StageView struct {
	Stage
	Date      string `json:"date"`
	Time      string `json:"time"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
	Status    string `json:"status,omitempty"`
}

// Timeline is the progress of a sub-item as shown in the tracking view
type Timeline struct {
	Key            string      `json:"key"`
	CurrentStageID int         `json:"currentStageId"`
	Action         string      `json:"action,omitempty"`
	Delivered      bool        `json:"delivered"`
	Stages         []StageView `json:"stages"`
}

// BuildTimeline renders r stage by stage
func BuildTimeline(key Key, r Record) Timeline {
	tl := Timeline{
		Key:            key.String(),
		CurrentStageID: r.CurrentStageID,
		Delivered:      r.Delivered(),
		Stages:         make([]StageView, 0, len(Stages)),
	}

	switch {
	case r.Delivered():
	case r.CurrentStageID == FinalStage:
		tl.Action = ActionConfirmDelivery
	default:
		tl.Action = ActionUpdate
	}

	for _, s := range Stages {
		v := StageView{Stage: s, Date: "-", Time: "-"}
		if stamp, ok := r.History[s.ID]; ok {
			v.Date = stamp.Date
			v.Time = stamp.Time
		}
		v.Completed = s.ID < r.CurrentStageID || (s.ID == FinalStage && r.Delivered())
		v.Current = s.ID == r.CurrentStageID && !v.Completed
		if v.Completed {
			v.Status = "Completed"
			if s.ID == FinalStage {
				v.Status = "Delivered"
			}
		}
		tl.Stages = append(tl.Stages, v)
	}
	return tl
}
