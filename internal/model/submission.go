package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/sha3"
)

// Submission is a validated form payload stored by the server.
type Submission struct {
	ID         int64          `json:"id"`
	TemplateID int64          `json:"template_id"`
	Data       map[string]any `json:"data"`

	// PayloadHash is the SHA3-256 of the canonical JSON of Data.
	// Identical payloads share a hash, which reports use to count repeats.
	PayloadHash string    `json:"payload_hash"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmission creates a submission for templateID and computes its hash.
func NewSubmission(templateID int64, data map[string]any) (*Submission, error) {
	hash, err := HashPayload(data)
	if err != nil {
		return nil, err
	}
	return &Submission{
		TemplateID:  templateID,
		Data:        data,
		PayloadHash: hash,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// HashPayload returns the hex SHA3-256 digest of data's JSON encoding.
// encoding/json sorts map keys, so the digest does not depend on map order.
func HashPayload(data map[string]any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// SubmissionReport groups a template with its stored submissions for output.
type SubmissionReport struct {
	Template    Template      `json:"template"`
	Submissions []*Submission `json:"submissions"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// DuplicateCount returns how many submissions repeat an earlier payload.
func (r *SubmissionReport) DuplicateCount() int {
	seen := make(map[string]bool, len(r.Submissions))
	dups := 0
	for _, s := range r.Submissions {
		if seen[s.PayloadHash] {
			dups++
			continue
		}
		seen[s.PayloadHash] = true
	}
	return dups
}

// CheckboxCounts returns, for every checkbox field of the template, how many
// submissions stored true and how many stored false.
func (r *SubmissionReport) CheckboxCounts() map[string][2]int {
	counts := make(map[string][2]int)
	for _, f := range r.Template.Fields {
		if f.EffectiveType() != FieldCheckbox {
			continue
		}
		var c [2]int
		for _, s := range r.Submissions {
			if v, ok := s.Data[f.Name].(bool); ok && v {
				c[0]++
			} else {
				c[1]++
			}
		}
		counts[f.Name] = c
	}
	return counts
}
