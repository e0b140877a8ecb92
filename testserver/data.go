package testserver

import (
	"strings"

	"github.com/google/uuid"
)

// Deal pipeline stages.
const (
	StageLead        = "LEAD"
	StageQualified   = "QUALIFIED"
	StageProposal    = "PROPOSAL"
	StageNegotiation = "NEGOTIATION"
	StageClosedWon   = "CLOSED_WON"
	StageClosedLost  = "CLOSED_LOST"
)

type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	JobTitle  string `json:"jobTitle"`
}

type Deal struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Stage     string  `json:"stage"`
	CloseDate string  `json:"closeDate"`
}

// Criterion is one key/operation/value triple of a search expression.
type Criterion struct {
	Key       string
	Operation string // ":", ">" or "<"
	Value     string
}

// ParseCriteria parses "key:value,key>value,key<value". Tokens are split on
// the first of '>', '<' or ':' found in that order of precedence; tokens
// with none of them are ignored.
func ParseCriteria(search string) []Criterion {
	var out []Criterion
	if search == "" {
		return out
	}
	for _, token := range strings.Split(search, ",") {
		for _, op := range []string{">", "<", ":"} {
			if key, value, ok := strings.Cut(token, op); ok {
				out = append(out, Criterion{Key: key, Operation: op, Value: value})
				break
			}
		}
	}
	return out
}

// Matches reports whether c satisfies every criterion. ':' is a
// case-insensitive substring match, '>' and '<' are inclusive string
// comparisons. Unknown keys never match.
func (c Contact) Matches(criteria []Criterion) bool {
	for _, cr := range criteria {
		field, ok := c.field(cr.Key)
		if !ok {
			return false
		}
		switch cr.Operation {
		case ":":
			if !strings.Contains(strings.ToLower(field), strings.ToLower(cr.Value)) {
				return false
			}
		case ">":
			if field < cr.Value {
				return false
			}
		case "<":
			if field > cr.Value {
				return false
			}
		}
	}
	return true
}

func (c Contact) field(key string) (string, bool) {
	switch key {
	case "firstName":
		return c.FirstName, true
	case "lastName":
		return c.LastName, true
	case "email":
		return c.Email, true
	case "phone":
		return c.Phone, true
	case "jobTitle":
		return c.JobTitle, true
	}
	return "", false
}

func seedContacts() []Contact {
	contacts := []Contact{
		{FirstName: "John", LastName: "Smith", Email: "john.smith@acme.com", Phone: "555-0100", JobTitle: "CTO"},
		{FirstName: "Jane", LastName: "Doe", Email: "jane.doe@globex.com", Phone: "555-0101", JobTitle: "VP Sales"},
		{FirstName: "Johnny", LastName: "Appleseed", Email: "johnny@orchard.io", Phone: "555-0102", JobTitle: "Founder"},
		{FirstName: "Alice", LastName: "Johnson", Email: "alice.johnson@initech.com", Phone: "555-0103", JobTitle: "Buyer"},
		{FirstName: "Bob", LastName: "Brown", Email: "bob.brown@umbrella.com", Phone: "555-0104", JobTitle: "Engineer"},
	}
	for i := range contacts {
		contacts[i].ID = uuid.NewString()
	}
	return contacts
}

func seedDeals() []Deal {
	deals := []Deal{
		{Title: "Acme platform renewal", Value: 50000, Stage: StageClosedWon, CloseDate: "2024-01-15"},
		{Title: "Globex expansion", Value: 120000, Stage: StageNegotiation, CloseDate: "2024-03-01"},
		{Title: "Orchard pilot", Value: 8000, Stage: StageClosedWon, CloseDate: "2024-02-10"},
		{Title: "Initech licenses", Value: 30000, Stage: StageProposal, CloseDate: "2024-04-20"},
		{Title: "Umbrella audit", Value: 15000, Stage: StageQualified, CloseDate: "2024-05-05"},
		{Title: "Hooli migration", Value: 75000, Stage: StageLead, CloseDate: "2024-06-30"},
		{Title: "Vandelay import", Value: 22000, Stage: StageClosedLost, CloseDate: "2024-01-30"},
		{Title: "Acme support add-on", Value: 12000, Stage: StageClosedWon, CloseDate: "2024-01-15"},
	}
	for i := range deals {
		deals[i].ID = uuid.NewString()
	}
	return deals
}
