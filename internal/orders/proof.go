package orders

import (
	"regexp"
	"sort"
	"strings"

	"example.com/backstage/services/herdadmin/internal/models"
)

var imageExtension = regexp.MustCompile(`\.(jpeg|jpg|png|gif|webp)(\?.*)?$`)

var proofKeyHints = []string{"image", "photo", "proof", "card"}

// ProofFile is a payment evidence document attached to a transaction
type ProofFile struct {
	Field string `json:"field"`
	URL   string `json:"url"`
}

// Proof is what the proof viewer shows for one order
type Proof struct {
	OrderID      string      `json:"orderId"`
	InvestorName string      `json:"name"`
	Files        []ProofFile `json:"files"`
}

// IsProofField reports whether a transaction attribute looks like a document
func IsProofField(key, value string) bool {
	if value == "" {
		return false
	}
	lowerKey := strings.ToLower(key)
	for _, hint := range proofKeyHints {
		if strings.Contains(lowerKey, hint) {
			return true
		}
	}
	return imageExtension.MatchString(strings.ToLower(value))
}

// ProofOf collects the proof documents of entry, ordered by field name
func ProofOf(entry models.OrderEntry) Proof {
	p := Proof{
		OrderID:      entry.Order.ID.String(),
		InvestorName: entry.InvestorName(),
		Files:        []ProofFile{},
	}
	if entry.Transaction == nil {
		return p
	}
	for key, value := range entry.Transaction.Extra {
		if IsProofField(key, value) {
			p.Files = append(p.Files, ProofFile{Field: key, URL: value})
		}
	}
	sort.Slice(p.Files, func(i, j int) bool { return p.Files[i].Field < p.Files[j].Field })
	return p
}
