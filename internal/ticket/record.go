// Package ticket generates hotspot voucher records and provisions them on a device.
package ticket

import "fmt"

// StatusKind classifies the outcome of a record.
type StatusKind int

const (
	StatusPending StatusKind = iota
	StatusCreatedRemotely
	StatusLocalOnly
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusCreatedRemotely:
		return "created"
	case StatusLocalOnly:
		return "local"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// Status is the provisioning outcome of a record. Message is set only for errors.
type Status struct {
	Kind    StatusKind
	Message string
}

func Pending() Status         { return Status{Kind: StatusPending} }
func CreatedRemotely() Status { return Status{Kind: StatusCreatedRemotely} }
func LocalOnly() Status       { return Status{Kind: StatusLocalOnly} }

// Failed returns an error status carrying msg.
func Failed(msg string) Status {
	return Status{Kind: StatusError, Message: msg}
}

func (s Status) String() string {
	if s.Kind == StatusError && s.Message != "" {
		return s.Kind.String() + ": " + s.Message
	}
	return s.Kind.String()
}

// Record is one generated voucher.
type Record struct {
	Sequence    int
	Username    string
	Password    string
	Profile     string
	DurationRaw string
	DurationTag string
	TicketType  string
	Batch       string
	Status      Status
}

// settle moves a pending record to its final status. It reports false and
// leaves the record untouched when the status was already settled.
func (r *Record) settle(s Status) bool {
	if r.Status.Kind != StatusPending || s.Kind == StatusPending {
		return false
	}
	r.Status = s
	return true
}

// Summary counts records by outcome.
type Summary struct {
	Total     int
	Created   int
	LocalOnly int
	Failed    int
}

// Summarize tallies records. Pending records only count toward Total.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status.Kind {
		case StatusCreatedRemotely:
			s.Created++
		case StatusLocalOnly:
			s.LocalOnly++
		case StatusError:
			s.Failed++
		}
	}
	return s
}

// Succeeded is the number of records that are usable vouchers.
func (s Summary) Succeeded() int {
	return s.Created + s.LocalOnly
}

func (s Summary) String() string {
	return fmt.Sprintf("%d tickets: %d created, %d local only, %d failed", s.Total, s.Created, s.LocalOnly, s.Failed)
}
