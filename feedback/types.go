package feedback

import "time"

// Fields is the set of named attributes a resident fills in on the form.
// Validation of the values happens in the form layer before submission;
// this package stores whatever it is given.
type Fields struct {
	LastName    string `json:"lastName"`
	UnitNumber  string `json:"unitNumber"`
	Topics      string `json:"topics"`
	Urgency     string `json:"urgency"`
	Subject     string `json:"subject"`
	Comment     string `json:"comment"`
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"isAnonymous"`
	CopyPM      bool   `json:"copyPM"`
	CopyMe      bool   `json:"copyMe"`
	ButtonType  string `json:"buttonType,omitempty"`
}

// Submission is one appended feedback record. ID and SubmittedAt are
// assigned by the store at append time and never change afterwards.
type Submission struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Fields
}

type AppendResult struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type PurgeResult struct {
	ClearedCount int `json:"clearedCount"`
}

// Export is the rendered form of the whole log, ready to hand to a client
// as a download. Count 0 means the log was empty and Content is empty too.
type Export struct {
	Filename string
	Content  []byte
	Count    int
}
