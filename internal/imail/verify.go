package imail

import (
	"context"
	"net"
	"net/mail"
	"strings"
	"time"
)

// VerifyRequest controls which checks run beyond syntax
type VerifyRequest struct {
	Email           string `json:"email" validate:"required"`
	CheckMX         bool   `json:"checkMx,omitempty"`
	CheckDisposable bool   `json:"checkDisposable,omitempty"`
}

// Checks records each verification step's outcome. MX and Disposable are nil
// when the caller did not request them. Disposable is true when the domain
// passed the check, false when the domain is a known throwaway provider.
type Checks struct {
	Syntax     bool  `json:"syntax"`
	MX         *bool `json:"mx,omitempty"`
	Disposable *bool `json:"disposable,omitempty"`
}

// Suggestion proposes a likely-intended address
type Suggestion struct {
	Type       string `json:"type"`
	Suggestion string `json:"suggestion"`
}

// Verification is the full verification report for one address
type Verification struct {
	Success     bool         `json:"success"`
	Email       string       `json:"email"`
	Valid       bool         `json:"valid"`
	Checks      Checks       `json:"checks"`
	Suggestions []Suggestion `json:"suggestions"`
	RiskScore   int          `json:"riskScore"`
	RiskLevel   string       `json:"riskLevel"`
}

// disposableDomains are throwaway-email providers. Addresses there accept
// mail but nobody durable reads it.
var disposableDomains = map[string]bool{
	"mailinator.com":     true,
	"guerrillamail.com":  true,
	"10minutemail.com":   true,
	"tempmail.com":       true,
	"temp-mail.org":      true,
	"throwawaymail.com":  true,
	"yopmail.com":        true,
	"trashmail.com":      true,
	"getnada.com":        true,
	"sharklasers.com":    true,
	"dispostable.com":    true,
	"maildrop.cc":        true,
	"fakeinbox.com":      true,
	"mintemail.com":      true,
	"mytemp.email":       true,
}

// commonTypos maps frequent misspellings of major providers to the intended domain
var commonTypos = map[string]string{
	"gmial.com":    "gmail.com",
	"gmai.com":     "gmail.com",
	"gamil.com":    "gmail.com",
	"gmaill.com":   "gmail.com",
	"gmail.co":     "gmail.com",
	"gnail.com":    "gmail.com",
	"hotmial.com":  "hotmail.com",
	"hotmal.com":   "hotmail.com",
	"hotmail.co":   "hotmail.com",
	"yaho.com":     "yahoo.com",
	"yahooo.com":   "yahoo.com",
	"yhaoo.com":    "yahoo.com",
	"outlok.com":   "outlook.com",
	"outloook.com": "outlook.com",
	"iclould.com":  "icloud.com",
	"icoud.com":    "icloud.com",
}

const (
	riskSyntaxFailure = 60
	riskDisposable    = 40
	riskNoMX          = 30
	riskTypo          = 15
)

// mxLookup resolves MX records for a domain
type mxLookup func(ctx context.Context, domain string) ([]*net.MX, error)

// Verifier checks addresses without sending anything
type Verifier struct {
	lookupMX mxLookup
}

// NewVerifier creates an address verifier using the system resolver
func NewVerifier() *Verifier {
	return &Verifier{
		lookupMX: func(ctx context.Context, domain string) ([]*net.MX, error) {
			return net.DefaultResolver.LookupMX(ctx, domain)
		},
	}
}

// WithMXLookup overrides the MX resolver. Exposed for tests.
func (v *Verifier) WithMXLookup(fn mxLookup) *Verifier {
	v.lookupMX = fn
	return v
}

// Verify runs the requested checks and produces an additive risk score. The
// address is never contacted; verification is resolvable-and-plausible, not
// proof of deliverability.
func (v *Verifier) Verify(ctx context.Context, req *VerifyRequest) *Verification {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	result := &Verification{
		Success:     true,
		Email:       email,
		Suggestions: []Suggestion{},
	}

	addr, err := mail.ParseAddress(email)
	result.Checks.Syntax = err == nil && addr.Address == email && strings.Contains(email, "@")
	if !result.Checks.Syntax {
		result.RiskScore += riskSyntaxFailure
		result.Valid = false
		result.RiskLevel = riskLevel(result.RiskScore)
		return result
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	valid := true

	if suggested, ok := commonTypos[domain]; ok {
		local := email[:strings.LastIndex(email, "@")]
		result.Suggestions = append(result.Suggestions, Suggestion{
			Type:       "typo",
			Suggestion: local + "@" + suggested,
		})
		result.RiskScore += riskTypo
	}

	if req.CheckDisposable {
		passed := !disposableDomains[domain]
		result.Checks.Disposable = &passed
		if !passed {
			result.RiskScore += riskDisposable
			valid = false
		}
	}

	if req.CheckMX {
		mxCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		records, err := v.lookupMX(mxCtx, domain)
		passed := err == nil && len(records) > 0
		result.Checks.MX = &passed
		if !passed {
			result.RiskScore += riskNoMX
			valid = false
		}
	}

	result.Valid = valid
	result.RiskLevel = riskLevel(result.RiskScore)
	return result
}

func riskLevel(score int) string {
	switch {
	case score < 25:
		return "low"
	case score < 50:
		return "medium"
	default:
		return "high"
	}
}
