package model

import "time"

// ProductState is the lifecycle state of one product inside a batch.
type ProductState string

const (
	ProductPending   ProductState = "pending"
	ProductRunning   ProductState = "running"
	ProductSucceeded ProductState = "succeeded"
	ProductFailed    ProductState = "failed"
	ProductTimedOut  ProductState = "timed_out"
)

// Terminal reports whether no further transition is possible.
func (s ProductState) Terminal() bool {
	return s == ProductSucceeded || s == ProductFailed || s == ProductTimedOut
}

// OutcomeStatus is the coarse success flag reported per product.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailed  OutcomeStatus = "failed"
)

// Failure stages.
const (
	StageValidation     = "validation"
	StageInventory      = "inventory"
	StageInventoryCheck = "inventory_check"
	StageCalculation    = "calculation"
	StageResultCheck    = "result_check"
	StageQuality        = "quality"
	StageTimeout        = "timeout"
	StageCancelled      = "cancelled"
)

// ProductError describes why a product failed.
type ProductError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (e *ProductError) Error() string {
	return e.Stage + ": " + e.Message
}

// ProductOutcome is the terminal record of one submitted product.
type ProductOutcome struct {
	ProductID   string        `json:"productId"`
	Row         int           `json:"row"`
	Status      OutcomeStatus `json:"status"`
	State       ProductState  `json:"state"`
	Impacts     *ImpactResult `json:"impacts,omitempty"`
	DataQuality *DataQuality  `json:"dataQuality,omitempty"`
	Error       *ProductError `json:"error,omitempty"`
	DurationMs  int64         `json:"durationMs"`
}

// BatchReport aggregates a batch run. Total always equals Successful + Failed.
type BatchReport struct {
	BatchID               string           `json:"batchId"`
	Industry              string           `json:"industry"`
	Method                Method           `json:"method"`
	TotalProducts         int              `json:"totalProducts"`
	Successful            int              `json:"successful"`
	Failed                int              `json:"failed"`
	ProcessingTimeSeconds float64          `json:"processingTimeSeconds"`
	StartedAt             time.Time        `json:"startedAt"`
	Results               []ProductOutcome `json:"results"`
}

// Tally recomputes the counters from Results.
func (r *BatchReport) Tally() {
	r.TotalProducts = len(r.Results)
	r.Successful, r.Failed = 0, 0
	for _, o := range r.Results {
		if o.Status == StatusSuccess {
			r.Successful++
		} else {
			r.Failed++
		}
	}
}
